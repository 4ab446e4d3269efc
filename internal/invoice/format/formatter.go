// Package format renders human-readable payment instructions for invoices.
package format

import (
	"fmt"
	"strings"

	"github.com/reclaimlabs/recoveryhub/internal/currency"
	"github.com/reclaimlabs/recoveryhub/internal/invoice/domain"
)

// Formatter renders payment instruction text from invoice fields.
type Formatter struct {
	converter *currency.Converter
}

func NewFormatter(converter *currency.Converter) *Formatter {
	return &Formatter{converter: converter}
}

// Instructions renders the instruction blocks for the invoice. A crypto block
// is emitted when a wallet address is present, a wire block when a bank name
// is present; blocks are joined with a blank line. The function never fails:
// malformed input produces odd but printable output, and the create flow is
// responsible for rejecting invoices with neither method.
func (f *Formatter) Instructions(inv domain.Invoice) string {
	var blocks []string

	if inv.HasCryptoMethod() {
		blocks = append(blocks, f.cryptoBlock(inv))
	}
	if inv.HasWireMethod() {
		blocks = append(blocks, wireBlock(inv))
	}

	return strings.Join(blocks, "\n\n")
}

func (f *Formatter) cryptoBlock(inv domain.Invoice) string {
	usdt := f.converter.ToUSDT(inv.AmountDue, inv.Currency)

	var b strings.Builder
	b.WriteString("Cryptocurrency Payment\n")
	fmt.Fprintf(&b, "Amount: %.2f USDT\n", usdt)
	fmt.Fprintf(&b, "Network: %s\n", NetworkLabel(inv.CryptoNetwork))
	fmt.Fprintf(&b, "Wallet Address: %s", inv.CryptoWalletAddress)
	return b.String()
}

func wireBlock(inv domain.Invoice) string {
	var b strings.Builder
	b.WriteString("Wire Transfer\n")
	fmt.Fprintf(&b, "Amount: %.2f %s\n", inv.AmountDue, strings.ToUpper(inv.Currency))
	fmt.Fprintf(&b, "Bank Name: %s", inv.WireBankName)

	appendField(&b, "Account Holder", inv.WireAccountHolder)
	appendField(&b, "Account Number", inv.WireAccountNumber)
	appendField(&b, "Routing Number", inv.WireRoutingNumber)
	appendField(&b, "SWIFT/BIC", inv.WireSwiftCode)
	appendField(&b, "Bank Address", inv.WireBankAddress)
	return b.String()
}

func appendField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "\n%s: %s", label, value)
}

// NetworkLabel maps a stored network identifier to its display name. Only
// TRON is recognized explicitly; everything else is treated as Ethereum.
func NetworkLabel(network string) string {
	if strings.EqualFold(strings.TrimSpace(network), "tron") {
		return "TRON (TRC20)"
	}
	return "Ethereum (ERC20)"
}
