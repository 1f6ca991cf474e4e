package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/cfit-project/cfit-ledger/config"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOp(t *testing.T) {
	before := testutil.ToFloat64(operations.WithLabelValues("stake", ResultRejected))
	ObserveOp("stake", ResultRejected)
	ObserveOp("stake", ResultRejected)
	assert.Equal(t, before+2, testutil.ToFloat64(operations.WithLabelValues("stake", ResultRejected)))
}

func TestUpdate(t *testing.T) {
	Update(Snapshot{
		PoolBalance:  config.Coins(1050),
		TotalStaked:  new(uint256.Int).Div(config.Coins(101), uint256.NewInt(2)),
		RewardsPaid:  nil,
		ActiveStakes: 3,
	})
	assert.Equal(t, 1050.0, testutil.ToFloat64(poolBalance))
	assert.Equal(t, 50.5, testutil.ToFloat64(totalStaked))
	assert.Equal(t, 0.0, testutil.ToFloat64(rewardsPaid))
	assert.Equal(t, 3.0, testutil.ToFloat64(activeStakes))
}

func TestHandler(t *testing.T) {
	ObserveOp("transfer", ResultOK)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	res, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cfit_ledger_operations_total{op="transfer",result="ok"}`)
	assert.Contains(t, string(body), "cfit_pool_balance_coins")
}
