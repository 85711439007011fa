package bridge_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storebridge/internal/capability"
)

func TestListenerDeliversVerifiedUpdates(t *testing.T) {
	b, st, pub := newTestBridge(t, capability.All{})

	b.StartListening()
	require.True(t, b.Listening())

	st.EmitUpdate(verifiedTxn(1, "coins.small"))
	st.EmitUpdate(verifiedTxn(2, "coins.large"))

	require.Eventually(t, func() bool {
		return pub.count() == 2
	}, time.Second, 5*time.Millisecond)

	published := pub.published()
	assert.Equal(t, int64(1), published[0].ID)
	assert.Equal(t, int64(2), published[1].ID)
}

func TestListenerDropsUnverifiedUpdates(t *testing.T) {
	b, st, pub := newTestBridge(t, capability.All{})

	b.StartListening()

	st.EmitUpdate(unverifiedTxn(1, "coins.small", fmt.Errorf("revoked")))
	st.EmitUpdate(verifiedTxn(2, "coins.small"))

	require.Eventually(t, func() bool {
		return pub.count() == 1
	}, time.Second, 5*time.Millisecond)

	// Only the verified event came through, and nothing else trails it.
	time.Sleep(20 * time.Millisecond)
	published := pub.published()
	require.Len(t, published, 1)
	assert.Equal(t, int64(2), published[0].ID)
}

func TestListenerRestartReplacesSubscription(t *testing.T) {
	b, st, pub := newTestBridge(t, capability.All{})

	// Starting twice must not stack subscriptions: each event is delivered
	// exactly once.
	b.StartListening()
	b.StartListening()

	st.EmitUpdate(verifiedTxn(1, "coins.small"))

	require.Eventually(t, func() bool {
		return pub.count() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, pub.count(), "event was delivered more than once")
}

func TestListenerStopsDelivery(t *testing.T) {
	b, st, pub := newTestBridge(t, capability.All{})

	b.StartListening()
	st.EmitUpdate(verifiedTxn(1, "coins.small"))
	require.Eventually(t, func() bool {
		return pub.count() == 1
	}, time.Second, 5*time.Millisecond)

	b.StopListening()
	require.False(t, b.Listening())

	// Once StopListening returns, later events must never be delivered.
	st.EmitUpdate(verifiedTxn(2, "coins.small"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, pub.count())
}

func TestListenerDeliveryFailureKeepsSubscriptionAlive(t *testing.T) {
	b, st, pub := newTestBridge(t, capability.All{})

	b.StartListening()

	pub.failNext(fmt.Errorf("broker unreachable"))
	st.EmitUpdate(verifiedTxn(1, "coins.small"))
	st.EmitUpdate(verifiedTxn(2, "coins.small"))

	// The first delivery fails, the second still arrives.
	require.Eventually(t, func() bool {
		return pub.count() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), pub.published()[0].ID)
	assert.True(t, b.Listening())
}

func TestStopListeningWithoutStartIsNoop(t *testing.T) {
	b, _, _ := newTestBridge(t, capability.All{})
	assert.NotPanics(t, b.StopListening)
	assert.False(t, b.Listening())
}
