package outbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestClaimFilterReclaimsStaleClaims(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	branches, ok := claimFilter(now)["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, branches, 2)

	due := branches[0].(bson.M)
	assert.Equal(t, bson.M{"$in": bson.A{stateNew, stateFailed}}, due["state"])
	assert.Equal(t, bson.M{"$lte": now}, due["next_attempt_at"])

	stale := branches[1].(bson.M)
	assert.Equal(t, stateClaimed, stale["state"])
	assert.Equal(t, bson.M{"$lte": now.Add(-claimTimeout)}, stale["claimed_at"])
}
