package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"cityride/internal/journey"
	"cityride/internal/search"
)

const (
	searchSubject  = "search.settled"
	journeySubject = "journey.planned"
)

// Conn is the subset of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher emits settled searches and planned journeys as JSON events
// under a configurable subject prefix.
type NATSPublisher struct {
	conn        Conn
	nc          *nats.Conn
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url, prefix string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("cityride"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	p := newPublisher(nc, prefix, logSubjects, m)
	p.nc = nc
	return p, nil
}

func newPublisher(conn Conn, prefix string, logSubjects bool, m PublisherMetrics) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: subjectToken(prefix), logSubjects: logSubjects, metrics: m}
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

type SearchMessage struct {
	Query     string    `json:"query"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	RouteIDs  []string  `json:"routeIds"`
	Error     string    `json:"error,omitempty"`
}

type JourneyMessage struct {
	From      string       `json:"from"`
	To        string       `json:"to"`
	Timestamp time.Time    `json:"timestamp"`
	Options   []LegMessage `json:"options"`
}

type LegMessage struct {
	RouteNumber     string  `json:"routeNumber"`
	TripHeadsign    string  `json:"tripHeadsign"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	StopsInBetween  int     `json:"stopsInBetween"`
	DurationMinutes float64 `json:"durationMinutes"`
	Estimated       bool    `json:"estimated"`
}

// PublishSearch publishes a settled search state.
func (p *NATSPublisher) PublishSearch(s search.State) error {
	msg := SearchMessage{Query: s.Query, Seq: s.Seq, Timestamp: time.Now().UTC(), RouteIDs: make([]string, 0, len(s.Routes))}
	for _, r := range s.Routes {
		msg.RouteIDs = append(msg.RouteIDs, r.RouteID)
	}
	if s.Err != nil {
		msg.Error = s.Err.Error()
	}
	return p.publish(searchSubject, msg)
}

// PublishJourney publishes the options found between two stops.
func (p *NATSPublisher) PublishJourney(from, to string, options []journey.JourneyOption) error {
	msg := JourneyMessage{From: from, To: to, Timestamp: time.Now().UTC(), Options: make([]LegMessage, 0, len(options))}
	for _, o := range options {
		msg.Options = append(msg.Options, LegMessage{
			RouteNumber:     o.Leg.RouteNumber,
			TripHeadsign:    o.Leg.TripHeadsign,
			StartTime:       o.Leg.StartTime,
			EndTime:         o.Leg.EndTime,
			StopsInBetween:  o.Leg.StopsInBetween,
			DurationMinutes: o.Duration.Minutes,
			Estimated:       o.Duration.Estimated(),
		})
	}
	return p.publish(journeySubject, msg)
}

func (p *NATSPublisher) publish(subject string, v any) error {
	subject = fmt.Sprintf("%s.%s", p.prefix, subject)
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Printf("nats publish subject=%s", subject)
	}
	start := time.Now()
	err = p.conn.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
