package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"nugget/internal/fileengine"
	"nugget/internal/orchestrator"
)

type turnRequestBody struct {
	ConversationID string `json:"conversation_id"`
	PropertyID     string `json:"property_id"`
	Question       string `json:"question"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var body turnRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Question) == "" {
		http.Error(w, `{"error":"question is required"}`, http.StatusBadRequest)
		return
	}

	resp := s.orch.Handle(r.Context(), orchestrator.TurnRequest{
		ConversationID: body.ConversationID,
		PropertyID:     body.PropertyID,
		Question:       body.Question,
	})
	json.NewEncoder(w).Encode(resp)
}

type fileTurnRequestBody struct {
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question"`
	CSV            string `json:"csv"`
}

func (s *Server) handleFileTurn(w http.ResponseWriter, r *http.Request) {
	var body fileTurnRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Question) == "" || strings.TrimSpace(body.CSV) == "" {
		http.Error(w, `{"error":"question and csv are required"}`, http.StatusBadRequest)
		return
	}

	table, err := fileengine.LoadCSV(strings.NewReader(body.CSV))
	if err != nil {
		http.Error(w, `{"error":"failed to parse csv"}`, http.StatusBadRequest)
		return
	}

	result := s.orch.HandleFile(r.Context(), orchestrator.FileTurnRequest{
		ConversationID: body.ConversationID,
		Question:       body.Question,
		Table:          table,
	})
	json.NewEncoder(w).Encode(result)
}

type mixedTurnRequestBody struct {
	ConversationID string `json:"conversation_id"`
	PropertyID     string `json:"property_id"`
	Question       string `json:"question"`
	CSV            string `json:"csv"`
}

func (s *Server) handleMixedTurn(w http.ResponseWriter, r *http.Request) {
	var body mixedTurnRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Question) == "" || strings.TrimSpace(body.CSV) == "" {
		http.Error(w, `{"error":"question and csv are required"}`, http.StatusBadRequest)
		return
	}

	table, err := fileengine.LoadCSV(strings.NewReader(body.CSV))
	if err != nil {
		http.Error(w, `{"error":"failed to parse csv"}`, http.StatusBadRequest)
		return
	}

	resp := s.orch.HandleMixed(r.Context(), orchestrator.MixedTurnRequest{
		ConversationID: body.ConversationID,
		PropertyID:     body.PropertyID,
		Question:       body.Question,
		Table:          table,
	})
	json.NewEncoder(w).Encode(resp)
}
