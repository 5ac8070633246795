package session

import (
	"sort"

	"jepet/models"
)

// pendingAppointment records local changes to an appointment that the
// remote store has not reflected yet.
type pendingAppointment struct {
	created    bool
	reschedule *models.AppointmentChange
	cancelled  bool
}

// confirmedBy reports whether remote already carries every local change.
func (p *pendingAppointment) confirmedBy(remote models.Appointment) bool {
	if p.reschedule != nil {
		c := p.reschedule
		if remote.Date != c.Date || remote.Time != c.Time || remote.Type != c.Type {
			return false
		}
	}
	if p.cancelled && remote.Status != models.AppointmentCancelled {
		return false
	}
	return true
}

// mergeOrders takes the snapshot as the source of truth and keeps local
// orders whose write is still unconfirmed. Confirmed ids leave pending.
func mergeOrders(snapshot, local []models.Order, pending map[string]struct{}) []models.Order {
	out := make([]models.Order, 0, len(snapshot)+len(pending))
	seen := make(map[string]struct{}, len(snapshot))
	for _, o := range snapshot {
		out = append(out, o)
		seen[o.ID] = struct{}{}
		delete(pending, o.ID)
	}
	for _, o := range local {
		if _, ok := seen[o.ID]; ok {
			continue
		}
		if _, ok := pending[o.ID]; ok {
			out = append(out, o)
		}
	}
	sortOrders(out)
	return out
}

// mergeAppointments is mergeOrders for appointments, except that a remote
// copy only replaces the local one once it reflects the pending changes.
func mergeAppointments(snapshot, local []models.Appointment, pending map[string]*pendingAppointment) []models.Appointment {
	localByID := make(map[string]models.Appointment, len(local))
	for _, a := range local {
		localByID[a.ID] = a
	}

	out := make([]models.Appointment, 0, len(snapshot)+len(pending))
	seen := make(map[string]struct{}, len(snapshot))
	for _, remote := range snapshot {
		seen[remote.ID] = struct{}{}
		p, isPending := pending[remote.ID]
		if !isPending || p.confirmedBy(remote) {
			delete(pending, remote.ID)
			out = append(out, remote)
			continue
		}
		if l, ok := localByID[remote.ID]; ok {
			out = append(out, l)
		} else {
			out = append(out, remote)
		}
	}
	for _, a := range local {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		if _, ok := pending[a.ID]; ok {
			out = append(out, a)
		}
	}
	sortAppointments(out)
	return out
}

// sortOrders puts the newest order first. Ids are time-ordered and break ties.
func sortOrders(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].Date.Equal(orders[j].Date) {
			return orders[i].Date.After(orders[j].Date)
		}
		return orders[i].ID > orders[j].ID
	})
}

// sortAppointments puts the latest slot first. Date and time are
// zero-padded, so string order is chronological.
func sortAppointments(appts []models.Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		ki := appts[i].Date + " " + appts[i].Time
		kj := appts[j].Date + " " + appts[j].Time
		if ki != kj {
			return ki > kj
		}
		return appts[i].ID > appts[j].ID
	})
}

func (s *Store) applyOrders(gen uint64, snapshot []models.Order) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state.Orders = mergeOrders(snapshot, s.state.Orders, s.pendingOrders)
	s.state.OrdersLoading = false
	s.mu.Unlock()
	s.publishState()
}

func (s *Store) applyAppointments(gen uint64, snapshot []models.Appointment) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state.Appointments = mergeAppointments(snapshot, s.state.Appointments, s.pendingAppts)
	s.state.AppointmentsLoading = false
	s.mu.Unlock()
	s.publishState()
}
