package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stipend/core"
	"stipend/core/epoch"
	"stipend/native/token"
	"stipend/storage"
)

const (
	testAdminToken = "test-admin-token"
	testLaunch     = int64(20000 * 86400)
)

type testServer struct {
	server *httptest.Server
	node   *core.Node
	now    int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clock, err := epoch.NewClock(testLaunch, 24*time.Hour)
	require.NoError(t, err)

	node := core.NewNode(core.Config{
		DB:       storage.NewMemDB(),
		Clock:    clock,
		Schedule: epoch.DefaultSchedule(),
		Token:    token.Config{},
		Decimals: 18,
	})

	ts := &testServer{node: node, now: testLaunch}
	node.Engine().SetNowFunc(func() int64 { return ts.now })

	srv := NewServer(node, testAdminToken)
	ts.server = httptest.NewServer(srv.Router())
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) call(t *testing.T, method string, params interface{}, admin bool) (*http.Response, RPCResponse) {
	t.Helper()
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.server.URL+"/", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+testAdminToken)
	}
	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var rpcResp RPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	return resp, rpcResp
}

func decodeResult(t *testing.T, rpcResp RPCResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(rpcResp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func testAddr(b byte) string {
	return fmt.Sprintf("0x%038x%02x", 0, b)
}

func issueMembers(t *testing.T, ts *testServer, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		resp, rpcResp := ts.call(t, "membership_issue", issueParams{Owner: testAddr(byte(i))}, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Nil(t, rpcResp.Error)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.server.Client().Get(ts.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClaimOverRPC(t *testing.T) {
	ts := newTestServer(t)
	issueMembers(t, ts, 10)

	resp, rpcResp := ts.call(t, "stipend_claim", claimParams{ParticipantID: 1, Caller: testAddr(1)}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, rpcResp.Error)

	var result claimResult
	decodeResult(t, rpcResp, &result)
	require.Equal(t, uint64(1), result.Participant)
	require.Equal(t, "2123", result.BaseShare)
	require.Equal(t, "9", result.StreakBonus)
	require.Equal(t, "2132", result.Total)
	require.Equal(t, uint64(1), result.Streak)

	// Second claim in the same period conflicts.
	resp, rpcResp = ts.call(t, "stipend_claim", claimParams{ParticipantID: 1, Caller: testAddr(1)}, false)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NotNil(t, rpcResp.Error)
}

func TestClaimRejectsWrongCaller(t *testing.T) {
	ts := newTestServer(t)
	issueMembers(t, ts, 2)

	resp, rpcResp := ts.call(t, "stipend_claim", claimParams{ParticipantID: 1, Caller: testAddr(2)}, false)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.NotNil(t, rpcResp.Error)
	require.Equal(t, codeUnauthorized, rpcResp.Error.Code)
}

func TestWithdrawOverRPC(t *testing.T) {
	ts := newTestServer(t)
	issueMembers(t, ts, 10)

	_, claimResp := ts.call(t, "stipend_claim", claimParams{ParticipantID: 1, Caller: testAddr(1)}, false)
	require.Nil(t, claimResp.Error)

	resp, rpcResp := ts.call(t, "stipend_withdraw", withdrawParams{ParticipantID: 1, Caller: testAddr(1)}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, rpcResp.Error)

	var result withdrawResult
	decodeResult(t, rpcResp, &result)
	require.Equal(t, "2132", result.Amount)

	// The realised balance lands on the token ledger.
	resp, rpcResp = ts.call(t, "token_balance", balanceParams{Address: testAddr(1)}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var balance balanceResult
	decodeResult(t, rpcResp, &balance)
	require.Equal(t, "2132", balance.Balance)
}

func TestParticipantAndPoolStats(t *testing.T) {
	ts := newTestServer(t)
	issueMembers(t, ts, 10)

	_, claimResp := ts.call(t, "stipend_claim", claimParams{ParticipantID: 1, Caller: testAddr(1)}, false)
	require.Nil(t, claimResp.Error)

	_, rpcResp := ts.call(t, "stipend_participant", participantParams{ParticipantID: 1}, false)
	require.Nil(t, rpcResp.Error)
	var participant participantResult
	decodeResult(t, rpcResp, &participant)
	require.True(t, participant.EverClaimed)
	require.False(t, participant.CanClaimNow)
	require.Equal(t, uint64(1), participant.CurrentStreak)
	require.Equal(t, "2132", participant.Accumulated)

	_, rpcResp = ts.call(t, "stipend_poolStats", nil, false)
	require.Nil(t, rpcResp.Error)
	var stats poolStatsResult
	decodeResult(t, rpcResp, &stats)
	require.Equal(t, uint64(10), stats.Population)
	require.Equal(t, "30336", stats.CurrentBudget)
	require.Equal(t, uint64(1), stats.Phase)
}

func TestSweepRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	issueMembers(t, ts, 10)

	resp, rpcResp := ts.call(t, "stipend_sweep", sweepParams{Period: 1}, false)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, rpcResp.Error)
	require.Equal(t, codeUnauthorized, rpcResp.Error.Code)
}

func TestSweepFlowOverRPC(t *testing.T) {
	ts := newTestServer(t)
	issueMembers(t, ts, 10)

	_, rpcResp := ts.call(t, "stipend_setTreasury", setTreasuryParams{Treasury: testAddr(200)}, true)
	require.Nil(t, rpcResp.Error)

	_, claimResp := ts.call(t, "stipend_claim", claimParams{ParticipantID: 1, Caller: testAddr(1)}, false)
	require.Nil(t, claimResp.Error)

	period := uint64(testLaunch / 86400)
	ts.now += 86400

	resp, rpcResp := ts.call(t, "stipend_sweep", sweepParams{Period: period}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, rpcResp.Error)
	var result sweepResult
	decodeResult(t, rpcResp, &result)
	require.Equal(t, "28204", result.Unclaimed) // 30336 - 2132

	resp, rpcResp = ts.call(t, "stipend_sweep", sweepParams{Period: period}, true)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NotNil(t, rpcResp.Error)

	_, rpcResp = ts.call(t, "stipend_unclaimed", unclaimedParams{Period: period}, false)
	require.Nil(t, rpcResp.Error)
	var unclaimed unclaimedResult
	decodeResult(t, rpcResp, &unclaimed)
	require.True(t, unclaimed.Swept)
}

func TestHaltGatesClaims(t *testing.T) {
	ts := newTestServer(t)
	issueMembers(t, ts, 10)

	_, rpcResp := ts.call(t, "stipend_setHalt", setHaltParams{Halted: true}, true)
	require.Nil(t, rpcResp.Error)

	resp, rpcResp := ts.call(t, "stipend_claim", claimParams{ParticipantID: 1, Caller: testAddr(1)}, false)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NotNil(t, rpcResp.Error)

	_, rpcResp = ts.call(t, "stipend_setHalt", setHaltParams{Halted: false}, true)
	require.Nil(t, rpcResp.Error)

	resp, _ = ts.call(t, "stipend_claim", claimParams{ParticipantID: 1, Caller: testAddr(1)}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMembershipQueries(t *testing.T) {
	ts := newTestServer(t)
	issueMembers(t, ts, 2)

	_, rpcResp := ts.call(t, "membership_owner", ownerParams{ID: 2}, false)
	require.Nil(t, rpcResp.Error)
	var owner issueResult
	decodeResult(t, rpcResp, &owner)
	require.Equal(t, testAddr(2), owner.Owner)

	_, rpcResp = ts.call(t, "membership_of", ofParams{Owner: testAddr(1)}, false)
	require.Nil(t, rpcResp.Error)
	var of issueResult
	decodeResult(t, rpcResp, &of)
	require.Equal(t, uint64(1), of.ID)

	resp, rpcResp := ts.call(t, "membership_owner", ownerParams{ID: 99}, false)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NotNil(t, rpcResp.Error)

	// Duplicate issue conflicts.
	resp, rpcResp = ts.call(t, "membership_issue", issueParams{Owner: testAddr(1)}, true)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NotNil(t, rpcResp.Error)
}

func TestMalformedRequests(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.server.Client().Post(ts.server.URL+"/", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, rpcResp := ts.call(t, "no_such_method", nil, false)
	require.NotNil(t, rpcResp.Error)
	require.Equal(t, codeMethodNotFound, rpcResp.Error.Code)

	resp2, rpcResp := ts.call(t, "stipend_claim", claimParams{ParticipantID: 1, Caller: "not-hex"}, false)
	require.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	require.Equal(t, codeInvalidParams, rpcResp.Error.Code)
}
