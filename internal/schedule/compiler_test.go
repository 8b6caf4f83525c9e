package schedule

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"controlling_pod/internal/models"
)

func tz(s string) *string { return &s }

func mondayPower(on, off string, temp int) models.SideSchedule {
	return models.SideSchedule{
		models.Monday: {Power: models.Power{On: on, Off: off, OnTemperature: temp, Enabled: true}},
	}
}

func find(ts []Trigger, kind Kind, side models.Side) []Trigger {
	var out []Trigger
	for _, t := range ts {
		if t.Kind == kind && t.Side == side {
			out = append(out, t)
		}
	}
	return out
}

func TestAdjustedWeekday(t *testing.T) {
	t.Parallel()
	cases := []struct {
		day     models.DayOfWeek
		on, off string
		want    models.DayOfWeek
	}{
		{models.Monday, "22:00", "06:00", models.Tuesday},
		{models.Monday, "06:00", "22:00", models.Monday},
		{models.Saturday, "21:00", "09:00", models.Sunday},
		{models.Sunday, "00:00", "23:59", models.Sunday},
	}
	for _, c := range cases {
		if got := AdjustedWeekday(c.day, c.on, c.off); got != c.want {
			t.Errorf("AdjustedWeekday(%s,%s,%s) = %s, want %s", c.day, c.on, c.off, got, c.want)
		}
	}
}

func TestCompile_PowerWindowAcrossMidnight(t *testing.T) {
	t.Parallel()
	got, err := Compile(models.Schedules{Left: mondayPower("22:00", "06:00", 80)}, models.Settings{TimeZone: tz("UTC")})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	on := find(got, KindPowerOn, models.SideLeft)
	off := find(got, KindPowerOff, models.SideLeft)
	if len(on) != 1 || len(off) != 1 {
		t.Fatalf("want one on and one off, got %v", Keys(got))
	}
	if on[0].Weekday != time.Monday || on[0].Hour != 22 || on[0].Payload.OnTemperature != 80 {
		t.Errorf("bad power-on: %+v", on[0])
	}
	if off[0].Weekday != time.Tuesday || off[0].Day != models.Monday || off[0].Hour != 6 {
		t.Errorf("bad power-off: %+v", off[0])
	}
	if on[0].Key != "left-monday-22:00-power-on-80" || off[0].Key != "left-monday-06:00-power-off" {
		t.Errorf("unexpected keys %q %q", on[0].Key, off[0].Key)
	}
}

func TestCompile_SameDayWindow(t *testing.T) {
	t.Parallel()
	got, err := Compile(models.Schedules{Left: mondayPower("06:00", "22:00", 75)}, models.Settings{TimeZone: tz("UTC")})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	off := find(got, KindPowerOff, models.SideLeft)
	if len(off) != 1 || off[0].Weekday != time.Monday {
		t.Fatalf("off should stay on Monday: %+v", off)
	}
}

func TestCompile_TemperaturesNotAdjusted(t *testing.T) {
	t.Parallel()
	ss := models.SideSchedule{
		models.Saturday: {Temperatures: map[string]int{"23:00": 70, "02:00": 65, "05:30": 90}},
	}
	got, err := Compile(models.Schedules{Right: ss}, models.Settings{TimeZone: tz("UTC")})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	temps := find(got, KindTemperature, models.SideRight)
	if len(temps) != 3 {
		t.Fatalf("want 3 adjustments, got %v", Keys(got))
	}
	for _, tr := range temps {
		if tr.Weekday != time.Saturday {
			t.Errorf("%s fires on %s", tr.Key, tr.Weekday)
		}
	}
	// sorted by time within the day
	if temps[0].Time != "02:00" || temps[2].Time != "23:00" {
		t.Errorf("not sorted: %v", Keys(temps))
	}
}

func TestCompile_CountsPerEnabledDay(t *testing.T) {
	t.Parallel()
	s := models.DefaultSchedules()
	for _, d := range []models.DayOfWeek{models.Monday, models.Wednesday} {
		ds := s.Left[d]
		ds.Power.Enabled = true
		ds.Temperatures = map[string]int{"01:00": 70, "04:00": 72}
		s.Left[d] = ds
	}
	got, err := Compile(s, models.Settings{TimeZone: tz("America/New_York")})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if n := len(find(got, KindPowerOn, models.SideLeft)); n != 2 {
		t.Errorf("power-on = %d", n)
	}
	if n := len(find(got, KindPowerOff, models.SideLeft)); n != 2 {
		t.Errorf("power-off = %d", n)
	}
	if n := len(find(got, KindTemperature, models.SideLeft)); n != 4 {
		t.Errorf("temperature = %d", n)
	}
	if len(find(got, KindPowerOn, models.SideRight)) != 0 {
		t.Error("right side has no enabled days")
	}
}

func TestCompile_AwayAndNilTimezone(t *testing.T) {
	t.Parallel()
	s := models.Schedules{Left: mondayPower("22:00", "06:00", 80), Right: mondayPower("22:00", "06:00", 80)}

	got, err := Compile(s, models.Settings{})
	if err != nil || len(got) != 0 {
		t.Fatalf("nil timezone: %v, %v", got, err)
	}

	got, err = Compile(s, models.Settings{TimeZone: tz("UTC"), Left: models.SideSettings{AwayMode: true}})
	if err != nil {
		t.Fatal(err)
	}
	if len(find(got, KindPowerOn, models.SideLeft)) != 0 || len(find(got, KindPowerOn, models.SideRight)) != 1 {
		t.Fatalf("away left should only silence left: %v", Keys(got))
	}
}

func TestCompile_InvalidTimezone(t *testing.T) {
	t.Parallel()
	got, err := Compile(models.Schedules{Left: mondayPower("22:00", "06:00", 80)}, models.Settings{TimeZone: tz("Mars/Olympus")})
	if !errors.Is(err, ErrConfigInvalid) || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestCompile_InvalidSideFailsClosed(t *testing.T) {
	t.Parallel()
	s := models.Schedules{
		Left:  mondayPower("25:00", "06:00", 80),
		Right: mondayPower("22:00", "06:00", 80),
	}
	got, err := Compile(s, models.Settings{TimeZone: tz("UTC")})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("want ErrConfigInvalid, got %v", err)
	}
	if !strings.Contains(err.Error(), "left monday") {
		t.Errorf("error should name the side and day: %v", err)
	}
	for _, tr := range got {
		if tr.Side == models.SideLeft {
			t.Fatalf("left should contribute nothing, got %s", tr.Key)
		}
	}
	if len(find(got, KindPowerOn, models.SideRight)) != 1 {
		t.Fatal("right should still compile")
	}
}

func TestCompile_RejectsZeroLengthWindow(t *testing.T) {
	t.Parallel()
	_, err := Compile(models.Schedules{Left: mondayPower("22:00", "22:00", 80)}, models.Settings{TimeZone: tz("UTC")})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("want ErrConfigInvalid, got %v", err)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	t.Parallel()
	s := models.DefaultSchedules()
	for _, d := range models.DaysOfWeek {
		ds := s.Right[d]
		ds.Power.Enabled = true
		ds.Temperatures = map[string]int{"00:30": 60, "03:15": 70, "06:45": 80}
		s.Right[d] = ds
	}
	st := models.Settings{TimeZone: tz("Europe/Berlin"), PrimePodDaily: models.PrimePodDaily{Enabled: true, Time: "14:00"}}

	a, errA := Compile(s, st)
	b, errB := Compile(s, st)
	if errA != nil || errB != nil {
		t.Fatal(errA, errB)
	}
	if !reflect.DeepEqual(Keys(a), Keys(b)) {
		t.Fatal("key sets differ between identical compilations")
	}
}

func TestCompile_PrimeDaily(t *testing.T) {
	t.Parallel()
	st := models.Settings{TimeZone: tz("UTC"), PrimePodDaily: models.PrimePodDaily{Enabled: true, Time: "14:00"}}
	got, err := Compile(models.Schedules{}, st)
	if err != nil {
		t.Fatal(err)
	}
	prime := find(got, KindPrime, "")
	if len(prime) != 7 || prime[1].Key != "pod-monday-14:00-prime" {
		t.Fatalf("unexpected prime triggers: %v", Keys(prime))
	}

	st.Left.AwayMode, st.Right.AwayMode = true, true
	got, _ = Compile(models.Schedules{}, st)
	if len(got) != 0 {
		t.Fatalf("both away should suppress priming: %v", Keys(got))
	}

	st.Left.AwayMode, st.Right.AwayMode = false, false
	st.PrimePodDaily.Time = "2pm"
	if _, err := Compile(models.Schedules{}, st); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("bad prime time: %v", err)
	}
}

func TestValidateDaily(t *testing.T) {
	t.Parallel()
	good := models.DefaultDailySchedule()
	if err := ValidateDaily(good); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cases := map[string]func(*models.DailySchedule){
		"temp too hot":  func(d *models.DailySchedule) { d.Temperatures = map[string]int{"01:00": 111} },
		"temp time":     func(d *models.DailySchedule) { d.Temperatures = map[string]int{"1:00": 80} },
		"vibration":     func(d *models.DailySchedule) { d.Alarm.VibrationIntensity = 0 },
		"pattern":       func(d *models.DailySchedule) { d.Alarm.VibrationPattern = "buzz" },
		"duration":      func(d *models.DailySchedule) { d.Alarm.Duration = 181 },
		"alarm temp":    func(d *models.DailySchedule) { d.Alarm.AlarmTemperature = 54 },
		"power on":      func(d *models.DailySchedule) { d.Power.On = "24:00" },
		"power temp":    func(d *models.DailySchedule) { d.Power.OnTemperature = 200 },
		"empty enabled": func(d *models.DailySchedule) { d.Power = models.Power{Enabled: true} },
	}
	for name, mutate := range cases {
		d := models.DefaultDailySchedule()
		mutate(&d)
		if err := ValidateDaily(d); !errors.Is(err, ErrConfigInvalid) {
			t.Errorf("%s: want ErrConfigInvalid, got %v", name, err)
		}
	}
}

func TestParseHHMM(t *testing.T) {
	t.Parallel()
	h, m, err := ParseHHMM("07:05")
	if err != nil || h != 7 || m != 5 {
		t.Fatalf("ParseHHMM = %d %d %v", h, m, err)
	}
	for _, bad := range []string{"", "7:05", "24:00", "12:60", "12:5", "ab:cd"} {
		if _, _, err := ParseHHMM(bad); err == nil {
			t.Errorf("ParseHHMM(%q) should fail", bad)
		}
	}
}
