// Package server exposes a running workbook over HTTP and WebSocket so
// that a browser client can read and edit cells and receive push updates
// whenever a write ripples through the dependency graph.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/nachocheesedog/ssengine"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local dev / same-origin deployments only
	},
}

// Server wires a Safe workbook to HTTP handlers and a WebSocket broadcast
// registry. The workbook's own lock guards concurrent access; Server's
// lock only protects the client registry.
type Server struct {
	sheet   *ssengine.Safe
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

// New wraps an existing workbook for serving. Use ssengine.NewSafe() to
// construct sheet.
func New(sheet *ssengine.Safe) *Server {
	return &Server{
		sheet:   sheet,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Mux builds the HTTP handler tree: JSON endpoints for one-shot requests
// plus the /ws upgrade for push updates.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/add_sheet", s.handleAddSheet)
	mux.HandleFunc("/set_cell", s.handleSetCell)
	mux.HandleFunc("/get_cell", s.handleGetCell)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

type addSheetRequest struct {
	Name string `json:"name"`
}

type setCellRequest struct {
	Address string `json:"address"`
	Text    string `json:"text"`
}

type cellUpdate struct {
	Address string `json:"address"`
	Value   any    `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
}

type setCellResponse struct {
	Updated []cellUpdate `json:"updated"`
}

type getCellResponse struct {
	Address   string `json:"address"`
	Raw       string `json:"raw,omitempty"`
	Value     any    `json:"value,omitempty"`
	Formatted string `json:"formatted,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleAddSheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req addSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.sheet.AddWorksheet(req.Name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req setCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updates, err := s.applyUpdate(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.broadcastUpdates(updates)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(setCellResponse{Updated: updates})
}

func (s *Server) handleGetCell(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		http.Error(w, "address is required", http.StatusBadRequest)
		return
	}

	resp := getCellResponse{Address: address}
	snap, err := s.sheet.GetCell(address)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Raw = snap.Raw
		if snap.HasComputed {
			populateValue(&resp.Value, &resp.Error, snap.Computed)
			resp.Formatted = snap.Formatted
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// applyUpdate writes one cell (SetText runs the recalculation), returning
// every cell touched by the ripple so callers can report or broadcast a diff.
func (s *Server) applyUpdate(req setCellRequest) ([]cellUpdate, error) {
	if err := s.sheet.SetText(req.Address, req.Text); err != nil {
		return nil, err
	}

	var updates []cellUpdate
	for _, addr := range s.sheet.LastRecalculated() {
		address := s.sheet.FormatAddress(addr)
		value, err := s.sheet.Get(address)
		update := cellUpdate{Address: address}
		if err != nil {
			update.Error = err.Error()
		} else {
			populateValue(&update.Value, &update.Error, value)
		}
		updates = append(updates, update)
	}
	return updates, nil
}

// populateValue splits a Primitive into either a JSON-friendly value or
// an error string, since *SpreadsheetError isn't itself marshalable the
// way a client expects to read an error cell.
func populateValue(value *any, errOut *string, raw ssengine.Primitive) {
	if cellErr, ok := raw.(*ssengine.SpreadsheetError); ok {
		*errOut = cellErr.Error()
		return
	}
	*value = raw
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		var req setCellRequest
		if err := conn.ReadJSON(&req); err != nil {
			break
		}
		updates, err := s.applyUpdate(req)
		if err != nil {
			conn.WriteJSON(setCellResponse{Updated: []cellUpdate{{Address: req.Address, Error: err.Error()}}})
			continue
		}
		s.broadcastUpdates(updates)
	}
}

// broadcastUpdates pushes a diff to every connected client, dropping any
// connection that fails to accept the write.
func (s *Server) broadcastUpdates(updates []cellUpdate) {
	if len(updates) == 0 {
		return
	}
	msg := setCellResponse{Updated: updates}

	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		if err := client.WriteJSON(msg); err != nil {
			log.Printf("broadcast write failed: %v", err)
			client.Close()
			delete(s.clients, client)
		}
	}
}
