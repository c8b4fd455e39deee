package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/riverclinic/ubscare/internal/workflow"
	"github.com/riverclinic/ubscare/pkg/interfaces"
	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/rbac"
	"github.com/riverclinic/ubscare/pkg/types"
)

// rosterStatuses is the fixed set of actionable states shown on the
// physician daily roster.
var rosterStatuses = map[types.AppointmentStatus]bool{
	types.StatusScheduled:      true,
	types.StatusAwaitingCare:   true,
	types.StatusAwaitingDoctor: true,
	types.StatusInProgress:     true,
}

// Service computes the read-side projections over the appointment
// collection. Projections are pure filter/sort views; every refresh is a
// full re-read through the facade.
type Service struct {
	store  interfaces.Store
	logger *logger.Logger
}

// New creates the schedule projection service.
func New(store interfaces.Store, log *logger.Logger) *Service {
	return &Service{store: store, logger: log}
}

var _ interfaces.ScheduleService = (*Service)(nil)

// ReceptionQueue returns every non-terminal appointment, optionally
// restricted by patient-name substring and status, newest first.
func (s *Service) ReceptionQueue(filter *types.ReceptionFilter) ([]*types.Appointment, error) {
	appointments, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]*types.Appointment, 0, len(appointments))
	for _, apt := range appointments {
		if apt.Status == types.StatusCompleted || apt.Status == types.StatusCancelled {
			continue
		}
		if filter != nil {
			if filter.Status != "" && apt.Status != filter.Status {
				continue
			}
			if filter.Search != "" &&
				!strings.Contains(strings.ToLower(apt.PatientName), strings.ToLower(filter.Search)) {
				continue
			}
		}
		out = append(out, apt)
	}

	sortByDate(out, false)
	return out, nil
}

// DoctorDailyRoster returns the viewer's appointments for the given local
// calendar day: own or unassigned for a physician, everything for the
// admin, restricted to the actionable statuses, earliest first.
func (s *Service) DoctorDailyRoster(day time.Time, actor *types.Actor) ([]*types.Appointment, error) {
	appointments, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]*types.Appointment, 0, len(appointments))
	for _, apt := range appointments {
		if !types.SameDay(apt.Date, day) {
			continue
		}
		if !rosterStatuses[apt.Status] {
			continue
		}
		if !VisibleTo(apt, actor) {
			continue
		}
		out = append(out, apt)
	}

	sortByDate(out, true)
	return out, nil
}

// PatientAgenda returns the appointments referencing the viewer's own
// patient identity, newest first.
func (s *Service) PatientAgenda(actor *types.Actor) ([]*types.Appointment, error) {
	appointments, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]*types.Appointment, 0)
	for _, apt := range appointments {
		if actor.PatientID != "" && apt.PatientID == actor.PatientID {
			out = append(out, apt)
		}
	}

	sortByDate(out, false)
	return out, nil
}

// TodayCensus counts today's appointments still in an actionable status,
// for the reconciliation log line.
func (s *Service) TodayCensus() (int, error) {
	appointments, err := s.load()
	if err != nil {
		return 0, err
	}

	now := time.Now()
	count := 0
	for _, apt := range appointments {
		if types.SameDay(apt.Date, now) && rosterStatuses[apt.Status] {
			count++
		}
	}
	return count, nil
}

// VisibleTo applies the ownership filter: a physician sees appointments
// assigned to them or unassigned; the admin, reception, nursing and lab see
// all; a patient sees only their own.
func VisibleTo(apt *types.Appointment, actor *types.Actor) bool {
	switch actor.Role {
	case rbac.RoleDoctor:
		return apt.DoctorID == "" || apt.DoctorID == actor.ID
	case rbac.RolePatient:
		return actor.PatientID != "" && apt.PatientID == actor.PatientID
	default:
		return rbac.SeesAllAppointments(actor.Role)
	}
}

// load re-reads and decodes the whole appointment collection.
func (s *Service) load() ([]*types.Appointment, error) {
	records, err := s.store.Get(workflow.CollectionAppointments, nil)
	if err != nil {
		return nil, err
	}

	out := make([]*types.Appointment, 0, len(records))
	for _, rec := range records {
		var apt types.Appointment
		if err := types.FromRecord(rec, &apt); err != nil {
			s.logger.WithComponent("schedule").
				WithField("appointment_id", rec.ID()).
				Warn("Skipping undecodable appointment record")
			continue
		}
		out = append(out, &apt)
	}
	return out, nil
}

// sortByDate orders appointments by their scheduled date-time. Records with
// unparseable dates sink to the end.
func sortByDate(appointments []*types.Appointment, ascending bool) {
	sort.SliceStable(appointments, func(i, j int) bool {
		ti, erri := types.ParseClinicTime(appointments[i].Date)
		tj, errj := types.ParseClinicTime(appointments[j].Date)
		if erri != nil || errj != nil {
			return errj != nil && erri == nil
		}
		if ascending {
			return ti.Before(tj)
		}
		return tj.Before(ti)
	})
}
