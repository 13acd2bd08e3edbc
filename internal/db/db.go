package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cityride/internal/transit"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// maxRoutes caps how many routes a single search returns.
const maxRoutes = 50

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// Catalog serves route search and journey lookups from a GTFS schema
// (routes, trips, stops, stop_times) as created by postgis-gtfs-importer.
type Catalog struct {
	db *sql.DB
}

func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

// SearchRoutes matches query against route short and long names. Each
// route's stops and travel times come from one representative trip.
func (c *Catalog) SearchRoutes(ctx context.Context, query string) ([]transit.Route, error) {
	if query == "" {
		return []transit.Route{}, nil
	}
	q := `
SELECT r.route_id,
       COALESCE(r.route_short_name, ''),
       COALESCE(r.route_long_name, ''),
       COALESCE(MIN(t.trip_id), '')
FROM routes r
LEFT JOIN trips t ON t.route_id = r.route_id
WHERE r.route_short_name ILIKE $1 ESCAPE '\'
   OR r.route_long_name ILIKE $1 ESCAPE '\'
GROUP BY r.route_id, r.route_short_name, r.route_long_name
ORDER BY r.route_short_name, r.route_id
LIMIT $2`
	rows, err := c.db.QueryContext(ctx, q, "%"+escapeLike(query)+"%", maxRoutes)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer rows.Close()

	routes := []transit.Route{}
	for rows.Next() {
		var r transit.Route
		if err := rows.Scan(&r.RouteID, &r.ShortName, &r.LongName, &r.ExampleTripID); err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range routes {
		if routes[i].ExampleTripID == "" {
			routes[i].Stops = []transit.Stop{}
			routes[i].ApproxTravelTimes = []float64{}
			continue
		}
		sts, err := FetchStopTimes(ctx, c.db, routes[i].ExampleTripID)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", routes[i].RouteID, err)
		}
		routes[i].Stops, routes[i].ApproxTravelTimes = BuildTravelTimes(sts)
	}
	return routes, nil
}

// GetJourney lists trips that call at a stop named from and later at a stop
// named to, ordered by departure.
func (c *Catalog) GetJourney(ctx context.Context, from, to string) ([]transit.TripLeg, error) {
	q := `
SELECT COALESCE(o.departure_time::text, o.arrival_time::text, ''),
       COALESCE(d.arrival_time::text, d.departure_time::text, ''),
       (SELECT COUNT(*) FROM stop_times m
         WHERE m.trip_id = o.trip_id
           AND m.stop_sequence > o.stop_sequence
           AND m.stop_sequence < d.stop_sequence),
       COALESCE(NULLIF(r.route_short_name, ''), r.route_id),
       COALESCE(t.trip_headsign, '')
FROM stop_times o
JOIN stops so ON so.stop_id = o.stop_id
JOIN stop_times d ON d.trip_id = o.trip_id AND d.stop_sequence > o.stop_sequence
JOIN stops sd ON sd.stop_id = d.stop_id
JOIN trips t ON t.trip_id = o.trip_id
JOIN routes r ON r.route_id = t.route_id
WHERE so.stop_name ILIKE $1 ESCAPE '\' AND sd.stop_name ILIKE $2 ESCAPE '\'
ORDER BY 1, 2
LIMIT $3`
	rows, err := c.db.QueryContext(ctx, q, escapeLike(from), escapeLike(to), maxRoutes)
	if err != nil {
		return nil, fmt.Errorf("query journey: %w", err)
	}
	defer rows.Close()

	legs := []transit.TripLeg{}
	for rows.Next() {
		var l transit.TripLeg
		if err := rows.Scan(&l.StartTime, &l.EndTime, &l.StopsInBetween, &l.RouteNumber, &l.TripHeadsign); err != nil {
			return nil, err
		}
		legs = append(legs, l)
	}
	return legs, rows.Err()
}

func FetchStopTimes(ctx context.Context, db *sql.DB, tripID string) ([]transit.StopTime, error) {
	q := `SELECT st.stop_sequence,
                 COALESCE(st.arrival_time::text, ''),
                 COALESCE(st.departure_time::text, ''),
                 st.stop_id,
                 COALESCE(s.stop_name, '')
          FROM stop_times st
          JOIN stops s ON s.stop_id = st.stop_id
          WHERE st.trip_id = $1
          ORDER BY st.stop_sequence`
	rows, err := db.QueryContext(ctx, q, tripID)
	if err != nil {
		return nil, fmt.Errorf("query stop_times: %w", err)
	}
	defer rows.Close()

	var sts []transit.StopTime
	for rows.Next() {
		var st transit.StopTime
		var arr, dep string
		if err := rows.Scan(&st.StopSequence, &arr, &dep, &st.StopID, &st.StopName); err != nil {
			return nil, err
		}
		st.ArrivalSec = parseDaySeconds(arr)
		st.DepartureSec = parseDaySeconds(dep)
		sts = append(sts, st)
	}
	return sts, rows.Err()
}

// BuildTravelTimes turns a trip's stop_times into the stop list and the
// per-stop travel times (minutes) of a Route. Entry i is the arrival at stop
// i minus the arrival at the previous stop with a known time, so dwell time
// is included. Stops without times get 0.
func BuildTravelTimes(sts []transit.StopTime) ([]transit.Stop, []float64) {
	stops := make([]transit.Stop, len(sts))
	times := make([]float64, len(sts))
	prev := -1
	for i, st := range sts {
		stops[i] = transit.Stop{StopID: st.StopID, Name: st.StopName}
		cur := st.ArrivalSec
		if cur < 0 {
			cur = st.DepartureSec
		}
		if cur < 0 {
			continue
		}
		if prev >= 0 && i > 0 && cur > prev {
			times[i] = float64(cur-prev) / 60
		}
		prev = cur
	}
	return stops, times
}

// parseDaySeconds parses HH:MM:SS possibly with hours >= 24. Missing or
// malformed values yield -1.
func parseDaySeconds(s string) int {
	sec, err := transit.ParseClock(s)
	if err != nil {
		return -1
	}
	return sec
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match itself literally in an ILIKE ... ESCAPE '\' pattern.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
