package ticketing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess"
	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	err := newError(ErrDuplicateTicket, dataaccess.ErrDuplicateTicket, "You already have ticket %d.", 3)

	require.Equal(t, "You already have ticket 3.", err.Error())
	require.ErrorIs(t, err, ErrDuplicateTicket)
	require.ErrorIs(t, err, dataaccess.ErrDuplicateTicket)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestUserMessage(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", newError(ErrPermissionDenied, nil, "Only staff can do that."))

	msg, ok := UserMessage(wrapped)
	require.True(t, ok)
	require.Equal(t, "Only staff can do that.", msg)

	_, ok = UserMessage(errors.New("connection reset"))
	require.False(t, ok)
}
