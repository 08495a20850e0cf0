package billing

import (
	"context"

	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

// InvoicePDFGenerator puerto de generación del recibo PDF de una factura.
// La implementación (maroto) vive en infrastructure.
type InvoicePDFGenerator interface {
	Generate(ctx context.Context, inv *entity.Invoice, company *entity.Company) ([]byte, error)
}

// PDFUseCase genera la representación PDF de una factura del tenant.
type PDFUseCase struct {
	invRepo     repository.InvoiceRepository
	companyRepo repository.CompanyRepository
	generator   InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso de PDF.
func NewPDFUseCase(invRepo repository.InvoiceRepository, companyRepo repository.CompanyRepository, generator InvoicePDFGenerator) *PDFUseCase {
	return &PDFUseCase{invRepo: invRepo, companyRepo: companyRepo, generator: generator}
}

// Generate busca la factura dentro del tenant del caller y renderiza el PDF.
// companyID vacío significa alcance global (super_admin).
func (uc *PDFUseCase) Generate(ctx context.Context, invoiceID, companyID string) ([]byte, error) {
	inv, err := uc.invRepo.GetByIDAndCompany(ctx, invoiceID, companyID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	// La empresa del recibo es la de la factura, no la del caller.
	company, err := uc.companyRepo.GetByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return uc.generator.Generate(ctx, inv, company)
}
