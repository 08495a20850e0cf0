// Package pdf genera el recibo PDF de una factura de suscripción:
// cabecera con la empresa, detalle del cargo y estado de liquidación.
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appbilling "github.com/ventia/crm-api/internal/application/billing"
	"github.com/ventia/crm-api/internal/domain/entity"
)

var _ appbilling.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator renderiza recibos de factura con maroto (A4).
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator {
	return &MarotoPDFGenerator{}
}

// Generate arma el documento y devuelve los bytes del PDF.
func (g *MarotoPDFGenerator) Generate(ctx context.Context, inv *entity.Invoice, company *entity.Company) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build()

	m := maroto.New(cfg)

	m.AddRows(
		row.New(12).Add(
			col.New(8).Add(
				text.New(company.Name, props.Text{Size: 14, Style: fontstyle.Bold}),
				text.New(company.Email, props.Text{Size: 9, Top: 6}),
			),
			col.New(4).Add(
				text.New("RECIBO DE SUSCRIPCIÓN", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
				text.New(fmt.Sprintf("Factura %s", inv.ID), props.Text{Size: 8, Top: 5, Align: align.Right}),
			),
		),
		row.New(3).Add(col.New(12).Add(line.New())),
	)

	m.AddRows(
		detailRow("Suscripción", inv.SubscriptionID),
		detailRow("Concepto", inv.Description),
		detailRow("Vencimiento", inv.DueDate.Format("2006-01-02")),
		detailRow("Estado", inv.Status),
	)
	if inv.PaidAt != nil {
		m.AddRows(detailRow("Pagada el", inv.PaidAt.Format("2006-01-02 15:04")))
	}

	m.AddRows(
		row.New(3).Add(col.New(12).Add(line.New())),
		row.New(10).Add(
			col.New(8).Add(text.New("TOTAL", props.Text{Size: 12, Style: fontstyle.Bold})),
			col.New(4).Add(text.New(inv.Amount.StringFixed(2), props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right})),
		),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generar PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func detailRow(label, value string) core.Row {
	return row.New(7).Add(
		col.New(4).Add(text.New(label, props.Text{Size: 9, Style: fontstyle.Bold})),
		col.New(8).Add(text.New(value, props.Text{Size: 9})),
	)
}
