package format

import (
	"strings"
	"testing"

	"github.com/reclaimlabs/recoveryhub/internal/currency"
	"github.com/reclaimlabs/recoveryhub/internal/invoice/domain"
	"go.uber.org/zap"
)

func newTestFormatter() *Formatter {
	return NewFormatter(currency.NewConverter(zap.NewNop()))
}

func TestInstructionsBothMethods(t *testing.T) {
	f := newTestFormatter()

	out := f.Instructions(domain.Invoice{
		AmountDue:           100,
		Currency:            "EUR",
		CryptoWalletAddress: "TAbc123",
		CryptoNetwork:       "tron",
		WireBankName:        "First National",
		WireAccountHolder:   "Recovery Ltd",
		WireSwiftCode:       "FNBKUS33",
	})

	blocks := strings.Split(out, "\n\n")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks separated by a blank line, got %d:\n%s", len(blocks), out)
	}

	crypto, wire := blocks[0], blocks[1]
	if !strings.Contains(crypto, "Amount: 109.00 USDT") {
		t.Errorf("crypto block missing USDT-converted amount:\n%s", crypto)
	}
	if !strings.Contains(crypto, "Network: TRON (TRC20)") {
		t.Errorf("crypto block missing network label:\n%s", crypto)
	}
	if !strings.Contains(crypto, "Wallet Address: TAbc123") {
		t.Errorf("crypto block missing wallet address:\n%s", crypto)
	}

	if !strings.Contains(wire, "Amount: 100.00 EUR") {
		t.Errorf("wire block must keep the original currency:\n%s", wire)
	}
	if !strings.Contains(wire, "Bank Name: First National") {
		t.Errorf("wire block missing bank name:\n%s", wire)
	}
	if !strings.Contains(wire, "Account Holder: Recovery Ltd") {
		t.Errorf("wire block missing account holder:\n%s", wire)
	}
	if !strings.Contains(wire, "SWIFT/BIC: FNBKUS33") {
		t.Errorf("wire block missing swift code:\n%s", wire)
	}
	if strings.Contains(wire, "Routing Number") {
		t.Errorf("wire block must omit empty fields:\n%s", wire)
	}
}

func TestInstructionsUnknownNetworkDefaultsToEthereum(t *testing.T) {
	f := newTestFormatter()

	out := f.Instructions(domain.Invoice{
		AmountDue:           50,
		Currency:            "USD",
		CryptoWalletAddress: "0xdeadbeef",
		CryptoNetwork:       "polygon",
	})

	if !strings.Contains(out, "Ethereum (ERC20)") {
		t.Fatalf("expected Ethereum fallback label:\n%s", out)
	}
}

func TestInstructionsNoMethodsIsEmpty(t *testing.T) {
	f := newTestFormatter()

	if out := f.Instructions(domain.Invoice{AmountDue: 10, Currency: "USD"}); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}
