// ABOUTME: TUI update helpers for the dashboard
// ABOUTME: Collects client and report state and forwards it to the TUI
package server

import "fmt"

// updateTUI sends current dashboard state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}

	s.clientsMu.RLock()
	clients := make([]ClientInfo, 0, len(s.clients))
	for _, client := range s.clients {
		client.mu.RLock()
		analyses := client.Analyses
		client.mu.RUnlock()

		clients = append(clients, ClientInfo{
			Name:     client.Name,
			ID:       client.ID,
			Analyses: analyses,
		})
	}
	s.clientsMu.RUnlock()

	stored := s.reports.List()
	reports := make([]ReportInfo, 0, len(stored))
	for _, r := range stored {
		info := ReportInfo{
			Name:     r.Name,
			Clocks:   fmt.Sprintf("%s/%s", r.LocalClock, r.RemoteClock),
			Rows:     r.Rows,
			Warnings: len(r.Warnings),
		}
		if r.Adjusted != nil {
			info.RateMsPerS = r.Adjusted.RateMsPerS
		}
		reports = append(reports, info)
	}

	s.tui.Update(ServerStatus{
		Name:    s.config.Name,
		Port:    s.config.Port,
		Clients: clients,
		Reports: reports,
	})
}
