package value

import "time"

// Duration is a component-wise duration: Cypher durations distinguish
// calendar components (months, days) from the uniform sub-day remainder,
// because "1 month" has no fixed length in absolute time. A plain
// time.Duration cannot represent that, so this is a small struct instead.
type Duration struct {
	Months int64
	Days   int64
	Secs   int64
	Nanos  int64
}

func (d Duration) Negate() Duration {
	return Duration{Months: -d.Months, Days: -d.Days, Secs: -d.Secs, Nanos: -d.Nanos}
}

func (d Duration) Add(o Duration) Duration {
	return Duration{
		Months: d.Months + o.Months,
		Days:   d.Days + o.Days,
		Secs:   d.Secs + o.Secs,
		Nanos:  d.Nanos + o.Nanos,
	}
}

// AddToTime applies calendar components first (months, then days) and the
// sub-day remainder last, matching Cypher's documented duration-addition
// order.
func (d Duration) AddToTime(t time.Time) time.Time {
	t = t.AddDate(0, int(d.Months), int(d.Days))
	return t.Add(time.Duration(d.Secs)*time.Second + time.Duration(d.Nanos))
}

// Temporal wraps time.Time for the Date/Time/DateTime/LocalDateTime
// variants, with an explicit discriminant so "naive" values (Date, Time,
// LocalDateTime) never silently acquire or lose a zone.
type Temporal struct {
	T     time.Time
	Zoned bool
}

func DateValue(t time.Time) Value {
	return Value{Kind: KindDate, payload: Temporal{T: t, Zoned: false}}
}

func TimeValue(t time.Time, zoned bool) Value {
	return Value{Kind: KindTime, payload: Temporal{T: t, Zoned: zoned}}
}

func DateTimeValue(t time.Time) Value {
	return Value{Kind: KindDateTime, payload: Temporal{T: t, Zoned: true}}
}

func LocalDateTimeValue(t time.Time) Value {
	return Value{Kind: KindLocalDateTime, payload: Temporal{T: t, Zoned: false}}
}

func DurationValue(d Duration) Value {
	return Value{Kind: KindDuration, payload: d}
}

func (v Value) AsTemporal() Temporal {
	t, _ := v.payload.(Temporal)
	return t
}

func (v Value) AsDuration() Duration {
	d, _ := v.payload.(Duration)
	return d
}

// Point2D is a planar spatial value tagged with a spatial reference
// system identifier.
type Point2D struct {
	SRID int
	X, Y float64
}

type Point3D struct {
	SRID    int
	X, Y, Z float64
}

func Point2DValue(p Point2D) Value { return Value{Kind: KindPoint2D, payload: p} }
func Point3DValue(p Point3D) Value { return Value{Kind: KindPoint3D, payload: p} }

func (v Value) AsPoint2D() Point2D { p, _ := v.payload.(Point2D); return p }
func (v Value) AsPoint3D() Point3D { p, _ := v.payload.(Point3D); return p }
