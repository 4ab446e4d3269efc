package service

import (
	"context"
	"testing"

	invoicedomain "github.com/reclaimlabs/recoveryhub/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteRemovesInvoice(t *testing.T) {
	svc, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), inv.ID.String()))

	_, err = svc.GetByID(context.Background(), inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)

	err = svc.Delete(context.Background(), inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}

func TestGetByIDRejectsMalformedID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), "not-a-snowflake")
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}
