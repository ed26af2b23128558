package sharing

import (
	"context"
	"fmt"
	"strings"

	"trip-planner/internal/models"
	"trip-planner/pkg/email"
	"trip-planner/pkg/utils"

	"github.com/labstack/gommon/log"
)

// RouteReader loads a route with its days for the requesting user.
type RouteReader interface {
	GetRoute(ctx context.Context, userID string, routeID int64) (*models.RouteDetail, error)
}

// ServiceInterface defines the contract for sharing itineraries.
type ServiceInterface interface {
	ShareRoute(ctx context.Context, userID string, routeID int64, req models.ShareRouteRequest) error
}

// Service emails a rendered itinerary.
type Service struct {
	routes    RouteReader
	sender    email.Sender
	templates *email.TemplateManager
	logger    *log.Logger
}

// NewService creates a sharing service. A nil sender means email delivery is not
// configured and every share is reported as unavailable.
func NewService(routes RouteReader, sender email.Sender, templates *email.TemplateManager, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New("sharing")
	}
	return &Service{routes: routes, sender: sender, templates: templates, logger: logger}
}

func (s *Service) ShareRoute(ctx context.Context, userID string, routeID int64, req models.ShareRouteRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	if err := utils.GetValidator().Validate(req); err != nil {
		return err
	}
	to := req.Email
	if s.sender == nil || s.templates == nil {
		return models.Unavailable(nil, "email delivery is not configured")
	}

	detail, err := s.routes.GetRoute(ctx, userID, routeID)
	if err != nil {
		return err
	}

	data := itineraryData(detail)
	text, html, err := s.templates.RenderItinerary(data)
	if err != nil {
		return fmt.Errorf("sharing.ShareRoute: %w", err)
	}

	subject := "Itinerary: " + detail.Name
	if err := s.sender.SendEmail(ctx, to, subject, text, html); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return models.Unavailable(err, "email delivery failed")
	}
	s.logger.Infof("route %d shared by user %s", routeID, userID)
	return nil
}

// itineraryData flattens a route into template data. Days are dated from the
// start date when it is set.
func itineraryData(detail *models.RouteDetail) email.ItineraryData {
	data := email.ItineraryData{RouteName: detail.Name}
	if detail.StartDate != nil && detail.EndDate != nil {
		data.DateRange = detail.StartDate.Format(models.DateLayout) + " to " + detail.EndDate.Format(models.DateLayout)
	}
	if detail.Notes != nil {
		data.Notes = *detail.Notes
	}

	for _, day := range detail.Days {
		d := email.ItineraryDay{Number: day.DayNumber}
		if detail.StartDate != nil {
			d.Date = detail.StartDate.AddDate(0, 0, day.DayNumber-1).Format(models.DateLayout)
		}
		for _, st := range day.Stops {
			line := email.ItineraryStop{Position: st.OrderInDay, Name: fmt.Sprintf("Destination #%d", st.DestinationID)}
			if st.Destination != nil {
				line.Name = st.Destination.Name
				line.Address = st.Destination.Address
			}
			if st.PlannedTime != nil {
				line.PlannedTime = *st.PlannedTime
			}
			if st.Notes != nil {
				line.Notes = *st.Notes
			}
			d.Stops = append(d.Stops, line)
		}
		data.Days = append(data.Days, d)
	}
	return data
}
