package rpc

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strings"
)

type claimParams struct {
	ParticipantID uint64 `json:"participantId"`
	Caller        string `json:"caller"`
}

type claimResult struct {
	Participant uint64 `json:"participant"`
	Period      uint64 `json:"period"`
	BaseShare   string `json:"baseShare"`
	StreakBonus string `json:"streakBonus"`
	Total       string `json:"total"`
	Streak      uint64 `json:"streak"`
	StreakReset bool   `json:"streakReset"`
}

func (s *Server) handleClaim(w http.ResponseWriter, req *RPCRequest) {
	var params claimParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	receipt, err := s.node.Claim(params.ParticipantID, caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, claimResult{
		Participant: receipt.Participant,
		Period:      receipt.Period,
		BaseShare:   receipt.BaseShare.String(),
		StreakBonus: receipt.StreakBonus.String(),
		Total:       receipt.Total.String(),
		Streak:      receipt.Streak,
		StreakReset: receipt.StreakReset,
	})
}

type withdrawParams struct {
	ParticipantID uint64 `json:"participantId"`
	Caller        string `json:"caller"`
	Amount        string `json:"amount,omitempty"`
}

type withdrawResult struct {
	Participant uint64 `json:"participant"`
	Amount      string `json:"amount"`
}

func (s *Server) handleWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params withdrawParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount := big.NewInt(0)
	if trimmed := strings.TrimSpace(params.Amount); trimmed != "" {
		parsed, ok := new(big.Int).SetString(trimmed, 10)
		if !ok {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", params.Amount)
			return
		}
		amount = parsed
	}
	value, err := s.node.Withdraw(params.ParticipantID, caller, amount)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, withdrawResult{Participant: params.ParticipantID, Amount: value.String()})
}

type participantParams struct {
	ParticipantID uint64 `json:"participantId"`
}

type participantResult struct {
	ID              uint64 `json:"id"`
	Accumulated     string `json:"accumulated"`
	Withdrawn       string `json:"withdrawn"`
	TotalAccrued    string `json:"totalAccrued"`
	LastClaimPeriod uint64 `json:"lastClaimPeriod"`
	CurrentStreak   uint64 `json:"currentStreak"`
	LongestStreak   uint64 `json:"longestStreak"`
	TotalClaims     uint64 `json:"totalClaims"`
	EverClaimed     bool   `json:"everClaimed"`
	CanClaimNow     bool   `json:"canClaimNow"`
}

func (s *Server) handleParticipant(w http.ResponseWriter, req *RPCRequest) {
	var params participantParams
	if !decodeParams(w, req, &params) {
		return
	}
	status, err := s.node.ParticipantStatus(params.ParticipantID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, participantResult{
		ID:              status.ID,
		Accumulated:     status.Accumulated.String(),
		Withdrawn:       status.Withdrawn.String(),
		TotalAccrued:    status.TotalAccrued.String(),
		LastClaimPeriod: status.LastClaimPeriod,
		CurrentStreak:   status.CurrentStreak,
		LongestStreak:   status.LongestStreak,
		TotalClaims:     status.TotalClaims,
		EverClaimed:     status.EverClaimed,
		CanClaimNow:     status.CanClaimNow,
	})
}

type poolStatsResult struct {
	CurrentPeriod           uint64 `json:"currentPeriod"`
	CurrentBudget           string `json:"currentBudget"`
	Phase                   uint64 `json:"phase"`
	PeriodsRemainingInPhase uint64 `json:"periodsRemainingInPhase"`
	PeriodsSinceLaunch      uint64 `json:"periodsSinceLaunch"`
	Population              uint64 `json:"population"`
}

func (s *Server) handlePoolStats(w http.ResponseWriter, req *RPCRequest) {
	stats, err := s.node.PoolStats()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, poolStatsResult{
		CurrentPeriod:           stats.CurrentPeriod,
		CurrentBudget:           stats.CurrentBudget.String(),
		Phase:                   stats.Phase,
		PeriodsRemainingInPhase: stats.PeriodsRemainingInPhase,
		PeriodsSinceLaunch:      stats.PeriodsSinceLaunch,
		Population:              stats.Population,
	})
}

type unclaimedParams struct {
	Period uint64 `json:"period"`
}

type unclaimedResult struct {
	Period    uint64 `json:"period"`
	Unclaimed string `json:"unclaimed"`
	Swept     bool   `json:"swept"`
}

func (s *Server) handleUnclaimed(w http.ResponseWriter, req *RPCRequest) {
	var params unclaimedParams
	if !decodeParams(w, req, &params) {
		return
	}
	unclaimed, swept, err := s.node.Unclaimed(params.Period)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, unclaimedResult{Period: params.Period, Unclaimed: unclaimed.String(), Swept: swept})
}

type sweepParams struct {
	Period uint64 `json:"period"`
}

type sweepResult struct {
	Period    uint64 `json:"period"`
	Unclaimed string `json:"unclaimed"`
}

func (s *Server) handleSweep(w http.ResponseWriter, req *RPCRequest) {
	var params sweepParams
	if !decodeParams(w, req, &params) {
		return
	}
	unclaimed, err := s.node.Sweep(params.Period)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, sweepResult{Period: params.Period, Unclaimed: unclaimed.String()})
}

type setTreasuryParams struct {
	Treasury string `json:"treasury"`
}

func (s *Server) handleSetTreasury(w http.ResponseWriter, req *RPCRequest) {
	var params setTreasuryParams
	if !decodeParams(w, req, &params) {
		return
	}
	treasury, err := parseAddress(params.Treasury)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.SetTreasury(treasury); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"treasury": hexAddress(treasury)})
}

type setHaltParams struct {
	Halted bool `json:"halted"`
}

func (s *Server) handleSetHalt(w http.ResponseWriter, req *RPCRequest) {
	var params setHaltParams
	if !decodeParams(w, req, &params) {
		return
	}
	if err := s.node.SetEmergencyHalt(params.Halted); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"halted": params.Halted})
}

func (s *Server) handlePause(w http.ResponseWriter, req *RPCRequest) {
	if err := s.node.Pause(); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"paused": true})
}

func (s *Server) handleUnpause(w http.ResponseWriter, req *RPCRequest) {
	if err := s.node.Unpause(); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"paused": false})
}

// decodeParams unmarshals the single parameter object, tolerating its absence
// for methods without required fields.
func decodeParams(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) == 0 {
		return true
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return false
	}
	return true
}
