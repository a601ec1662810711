package fake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeClient_GetStatusDocuments(t *testing.T) {
	c := New()
	res, err := c.GetStatusDocuments(context.Background(), "", []string{"A1", "B2", "C3"})
	require.NoError(t, err)
	require.Len(t, res, 3)
	for _, r := range res {
		require.NotEmpty(t, r.StatusCode)
		require.NotEmpty(t, r.DateCreated)
	}

	again, err := c.GetStatusDocuments(context.Background(), "", []string{"A1", "B2", "C3"})
	require.NoError(t, err)
	require.Equal(t, res, again)
}
