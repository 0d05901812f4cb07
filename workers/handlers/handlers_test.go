package handlers

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gowrapbridge/types"
)

func router() http.Handler {
	r := chi.NewRouter()
	r.Get("/state", State)
	r.Get("/health", HealthCheck)
	r.Get("/stats/{status}", GetTransactions)
	r.Get("/checkpoint/{chain}", Checkpoint)
	r.Get("/balance/{chain}", Balance)
	return r
}

func get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestState(t *testing.T) {
	RelayerAddress = common.HexToAddress("0x96216849c49358B10257cb55b28eA603c874b05E")
	rec := get(t, "/state")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp APIStateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "0x96216849c49358B10257cb55b28eA603c874b05E", resp.Relayer)
	require.Len(t, resp.Chains, 2)
	assert.Equal(t, "source", resp.Chains[0].ID)
	assert.Equal(t, "Deposit", resp.Chains[0].Watches)
	assert.Equal(t, int64(97), resp.Chains[1].ChainID)
}

func TestHealthCheck(t *testing.T) {
	defer func(p func() error) { pingRedis = p }(pingRedis)

	pingRedis = func() error { return nil }
	assert.Equal(t, http.StatusOK, get(t, "/health").Code)

	pingRedis = func() error { return errors.New("connection refused") }
	rec := get(t, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis unavailable")
}

func TestGetTransactions(t *testing.T) {
	defer func(f func(string) ([]*types.RelayOperation, error)) { findByStatus = f }(findByStatus)

	findByStatus = func(status string) ([]*types.RelayOperation, error) {
		return []*types.RelayOperation{{ID: "op-1", Status: status, DestFunction: "wrap"}}, nil
	}
	rec := get(t, "/stats/failed")
	require.Equal(t, http.StatusOK, rec.Code)
	var ops []types.RelayOperation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ops))
	require.Len(t, ops, 1)
	assert.Equal(t, "op-1", ops[0].ID)
	assert.Equal(t, types.StatusFailed, ops[0].Status)

	assert.Equal(t, http.StatusNotFound, get(t, "/stats/pending").Code)

	findByStatus = func(string) ([]*types.RelayOperation, error) { return nil, errors.New("i/o timeout") }
	assert.Equal(t, http.StatusInternalServerError, get(t, "/stats/sent").Code)
}

func TestCheckpoint(t *testing.T) {
	defer func(f func(types.ChainID, types.EventKind) (int64, error)) { scannedBlock = f }(scannedBlock)

	scannedBlock = func(chain types.ChainID, kind types.EventKind) (int64, error) {
		if chain == types.ChainSource && kind == types.KindDeposit {
			return 4242, nil
		}
		return -1, nil
	}

	var resp APICheckpointResponse
	rec := get(t, "/checkpoint/source")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Block)
	assert.Equal(t, uint64(4242), *resp.Block)
	assert.Equal(t, "Deposit", resp.Kind)

	resp = APICheckpointResponse{}
	rec = get(t, "/checkpoint/destination")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Block)

	assert.Equal(t, http.StatusBadRequest, get(t, "/checkpoint/mainnet").Code)
}

func TestBalance(t *testing.T) {
	defer func(f func(context.Context, types.ChainID, common.Address) (*big.Int, error)) { balanceOf = f }(balanceOf)

	balanceOf = func(_ context.Context, chain types.ChainID, _ common.Address) (*big.Int, error) {
		if chain == types.ChainDestination {
			return nil, errors.New("all endpoints failed")
		}
		wei, _ := new(big.Int).SetString("1500000000000000000", 10)
		return wei, nil
	}

	rec := get(t, "/balance/source")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp APIBalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1500000000000000000", resp.Wei)
	assert.Equal(t, "1.500000", resp.Ether)

	assert.Equal(t, http.StatusInternalServerError, get(t, "/balance/destination").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, "/balance/bgl").Code)
}
