package pdf

import (
	"context"
	"io"
)

// InvoiceData is the render model for a client invoice PDF.
type InvoiceData struct {
	FirmName    string
	FirmAddress string
	FirmEmail   string

	InvoiceNumber string
	CaseReference string
	IssueDate     string
	DueDate       string
	Status        string

	BillToName  string
	BillToEmail string

	AmountDue           string
	PaymentInstructions string
}

type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateInvoice(ctx context.Context, data InvoiceData) (io.Reader, error) {
	return nil, nil
}
