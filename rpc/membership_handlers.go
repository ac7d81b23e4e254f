package rpc

import "net/http"

type issueParams struct {
	Owner string `json:"owner"`
}

type issueResult struct {
	ID    uint64 `json:"id"`
	Owner string `json:"owner"`
}

func (s *Server) handleMembershipIssue(w http.ResponseWriter, req *RPCRequest) {
	var params issueParams
	if !decodeParams(w, req, &params) {
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := s.node.MembershipIssue(owner)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, issueResult{ID: id, Owner: hexAddress(owner)})
}

type ownerParams struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleMembershipOwner(w http.ResponseWriter, req *RPCRequest) {
	var params ownerParams
	if !decodeParams(w, req, &params) {
		return
	}
	owner, err := s.node.MembershipOwner(params.ID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, issueResult{ID: params.ID, Owner: hexAddress(owner)})
}

type ofParams struct {
	Owner string `json:"owner"`
}

func (s *Server) handleMembershipOf(w http.ResponseWriter, req *RPCRequest) {
	var params ofParams
	if !decodeParams(w, req, &params) {
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := s.node.MembershipOf(owner)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, issueResult{ID: id, Owner: hexAddress(owner)})
}

type balanceParams struct {
	Address string `json:"address"`
}

type balanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, req *RPCRequest) {
	var params balanceParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.TokenBalance(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balanceResult{Address: hexAddress(addr), Balance: balance.String()})
}
