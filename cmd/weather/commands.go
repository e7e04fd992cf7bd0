package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kjstillabower/weather-client/internal/format"
	"github.com/kjstillabower/weather-client/internal/models"
	"github.com/kjstillabower/weather-client/internal/validation"
)

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "search":
		return a.search(ctx, args)
	case "locate":
		return a.locate(ctx, args)
	case "weather":
		return a.weather(ctx, args)
	case "air":
		return a.air(ctx, args)
	case "favorites":
		return a.favorites(ctx, args)
	case "home":
		return a.home(ctx, args)
	case "settings":
		return a.settingsCmd(ctx, args)
	case "warm":
		return a.warm(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *app) search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: search needs a query", errUsage)
	}
	q := strings.Join(args, " ")
	if !validation.QueryTooShort(strings.TrimSpace(q)) {
		var err error
		if q, err = validation.NormalizeQuery(q); err != nil {
			return err
		}
	}
	locs, err := a.gateway.SearchLocations(ctx, q)
	if err != nil {
		return err
	}
	return a.out.locations(locs)
}

func (a *app) locate(ctx context.Context, args []string) error {
	lat, lon, err := coordinates(args)
	if err != nil {
		return err
	}
	loc, found, err := a.gateway.ResolveLocation(ctx, lat, lon)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no place found near %v,%v", lat, lon)
	}
	return a.out.locations([]models.Location{loc})
}

func (a *app) weather(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("weather", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	units := fs.String("units", "", "temperature unit (c, f)")
	wind := fs.String("wind", "", "wind speed unit (kmh, mph, ms, knots)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	settings := a.settings.Current()
	if *units != "" {
		u, err := validation.ParseTemperatureUnit(*units)
		if err != nil {
			return err
		}
		settings.TemperatureUnit = u
	}
	if *wind != "" {
		u, err := validation.ParseWindSpeedUnit(*wind)
		if err != nil {
			return err
		}
		settings.WindSpeedUnit = u
	}
	loc, err := a.target(ctx, fs.Args())
	if err != nil {
		return err
	}
	data, err := a.gateway.FetchWeather(ctx, loc.Lat, loc.Lon, settings.TemperatureUnit, settings.WindSpeedUnit)
	if err != nil {
		return err
	}
	return a.out.weather(loc, data, settings)
}

func (a *app) air(ctx context.Context, args []string) error {
	loc, err := a.target(ctx, args)
	if err != nil {
		return err
	}
	data, err := a.gateway.FetchAirQuality(ctx, loc.Lat, loc.Lon)
	if err != nil {
		return err
	}
	return a.out.airQuality(loc, data)
}

// target returns the coordinates in args, or the home location when args is empty.
func (a *app) target(ctx context.Context, args []string) (models.Location, error) {
	if len(args) == 0 {
		home, ok := a.store.LoadHomeLocation(ctx)
		if !ok {
			return models.Location{}, fmt.Errorf("%w: no coordinates given and no home location set", errUsage)
		}
		return home, nil
	}
	lat, lon, err := coordinates(args)
	if err != nil {
		return models.Location{}, err
	}
	return models.Location{Lat: lat, Lon: lon}, nil
}

func (a *app) favorites(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: favorites list|add|remove", errUsage)
	}
	switch args[0] {
	case "list":
		return a.out.locations(a.store.LoadFavorites(ctx))
	case "add":
		loc, err := a.named(ctx, args[1:])
		if err != nil {
			return err
		}
		return a.out.locations(a.store.AddFavorite(ctx, loc))
	case "remove":
		lat, lon, err := coordinates(args[1:])
		if err != nil {
			return err
		}
		return a.out.locations(a.store.RemoveFavorite(ctx, models.Location{Lat: lat, Lon: lon}))
	default:
		return fmt.Errorf("%w: unknown favorites action %q", errUsage, args[0])
	}
}

func (a *app) home(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: home get|set", errUsage)
	}
	switch args[0] {
	case "get":
		home, ok := a.store.LoadHomeLocation(ctx)
		if !ok {
			return errors.New("no home location set")
		}
		return a.out.locations([]models.Location{home})
	case "set":
		loc, err := a.named(ctx, args[1:])
		if err != nil {
			return err
		}
		a.store.SaveHomeLocation(ctx, loc)
		return a.out.locations([]models.Location{loc})
	default:
		return fmt.Errorf("%w: unknown home action %q", errUsage, args[0])
	}
}

// named builds a location from "<lat> <lon> [name...]". Without a name the nearest
// place is looked up; when that fails the bare coordinates are kept.
func (a *app) named(ctx context.Context, args []string) (models.Location, error) {
	if len(args) < 2 {
		return models.Location{}, fmt.Errorf("%w: expected <lat> <lon> [name]", errUsage)
	}
	lat, lon, err := validation.ParseCoordinates(args[0], args[1])
	if err != nil {
		return models.Location{}, err
	}
	if name := strings.TrimSpace(strings.Join(args[2:], " ")); name != "" {
		return models.Location{Name: name, Lat: lat, Lon: lon}, nil
	}
	loc, found, err := a.gateway.ResolveLocation(ctx, lat, lon)
	if err != nil || !found {
		return models.Location{Name: fmt.Sprintf("%v,%v", lat, lon), Lat: lat, Lon: lon}, nil
	}
	// Keep the coordinates the user gave; favorites are matched on them exactly.
	loc.Lat, loc.Lon = lat, lon
	return loc, nil
}

func (a *app) settingsCmd(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "get" {
		return a.out.settings(a.settings.Current())
	}
	if args[0] != "set" || len(args) != 3 {
		return fmt.Errorf("%w: settings get | settings set <temp> <wind>", errUsage)
	}
	tu, err := validation.ParseTemperatureUnit(args[1])
	if err != nil {
		return err
	}
	wu, err := validation.ParseWindSpeedUnit(args[2])
	if err != nil {
		return err
	}
	next := models.UserSettings{TemperatureUnit: tu, WindSpeedUnit: wu}
	if err := a.settings.Update(ctx, next); err != nil {
		return err
	}
	return a.out.settings(a.settings.Current())
}

func (a *app) warm(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("warm", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	interval := fs.Duration("interval", a.cfg.WarmInterval, "refresh interval")
	once := fs.Bool("once", false, "warm once and exit")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *once {
		return a.warmer.Warm(ctx, a.savedLocations(ctx), a.settings.Current())
	}
	if *interval <= 0 {
		return fmt.Errorf("%w: -interval must be positive", errUsage)
	}
	err := a.warmer.WarmPeriodic(ctx, a.savedLocations, a.settings.Current, *interval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// savedLocations is the favorites plus home, without duplicate coordinates.
func (a *app) savedLocations(ctx context.Context) []models.Location {
	locs := a.store.LoadFavorites(ctx)
	if home, ok := a.store.LoadHomeLocation(ctx); ok {
		dup := false
		for _, l := range locs {
			if l.SameCoordinates(home) {
				dup = true
				break
			}
		}
		if !dup {
			locs = append(locs, home)
		}
	}
	return locs
}

func coordinates(args []string) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("%w: expected <lat> <lon>", errUsage)
	}
	return validation.ParseCoordinates(args[0], args[1])
}

// printer writes command results as text or JSON.
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer, asJSON bool) *printer {
	return &printer{w: w, json: asJSON}
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) locations(locs []models.Location) error {
	if p.json {
		return p.encode(locs)
	}
	if len(locs) == 0 {
		_, err := fmt.Fprintln(p.w, "no locations")
		return err
	}
	for _, l := range locs {
		place := l.Name
		if l.State != "" {
			place += ", " + l.State
		}
		if l.Country != "" {
			place += ", " + l.Country
		}
		if _, err := fmt.Fprintf(p.w, "%s (%v, %v)\n", place, l.Lat, l.Lon); err != nil {
			return err
		}
	}
	return nil
}

var tempSymbols = map[models.TemperatureUnit]string{models.Celsius: "°C", models.Fahrenheit: "°F"}
var windSymbols = map[models.WindSpeedUnit]string{
	models.KilometresPerHour: "km/h",
	models.MilesPerHour:      "mph",
	models.MetresPerSecond:   "m/s",
	models.Knots:             "kn",
}

func (p *printer) weather(loc models.Location, d models.WeatherData, s models.UserSettings) error {
	if p.json {
		return p.encode(d)
	}
	t, ws := tempSymbols[s.TemperatureUnit], windSymbols[s.WindSpeedUnit]
	c := d.Current
	cond := format.ClassifyWeather(c.WeatherCode, c.IsDay)
	var b strings.Builder
	if loc.Name != "" {
		fmt.Fprintf(&b, "%s\n", loc.Name)
	}
	fmt.Fprintf(&b, "%s %s, %.0f%s (feels like %.0f%s)\n", cond.Icon, c.Description, c.Temp, t, c.FeelsLike, t)
	fmt.Fprintf(&b, "Wind %.0f %s %s, gusts %.0f %s\n", c.WindSpeed, ws, format.WindDirectionLabel(c.WindDirection), c.WindGust, ws)
	fmt.Fprintf(&b, "Humidity %.0f%%, pressure %.0f hPa, precipitation %.0f%%\n", c.Humidity, c.Pressure, c.PrecipitationChance)
	fmt.Fprintf(&b, "UV %.1f (%s)\n", c.UVIndex, format.UVCategory(c.UVIndex).Label)
	if c.Sunrise != 0 && c.Sunset != 0 {
		fmt.Fprintf(&b, "Sunrise %s, sunset %s UTC\n", format.FormatTime(c.Sunrise, time.UTC), format.FormatTime(c.Sunset, time.UTC))
	}
	if len(d.Hourly) > 0 {
		b.WriteString("\nNext hours:\n")
		for _, h := range d.Hourly {
			fmt.Fprintf(&b, "  %s UTC  %s %.0f%s  %.0f%%\n", format.FormatTime(h.Time, time.UTC),
				format.ClassifyWeather(h.WeatherCode, h.IsDay).Icon, h.Temp, t, h.PrecipitationChance)
		}
	}
	if len(d.Daily) > 0 {
		b.WriteString("\nDaily:\n")
		for _, day := range d.Daily {
			fmt.Fprintf(&b, "  %-11s %s %.0f/%.0f%s  %.0f%%\n", format.FormatDate(day.Date, time.UTC, false),
				format.ClassifyWeather(day.WeatherCode, true).Label, day.TempMax, day.TempMin, t, day.PrecipitationChance)
		}
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *printer) airQuality(loc models.Location, d models.AirQualityData) error {
	if p.json {
		return p.encode(d)
	}
	name := loc.Name
	if name == "" {
		name = fmt.Sprintf("%v,%v", loc.Lat, loc.Lon)
	}
	_, err := fmt.Fprintf(p.w, "%s: AQI %d (%s)\nPM2.5 %.1f, PM10 %.1f, O3 %.1f, NO2 %.1f, SO2 %.1f, CO %.1f µg/m³\n",
		name, d.AQI, d.Category, d.PM25, d.PM10, d.O3, d.NO2, d.SO2, d.CO)
	return err
}

func (p *printer) settings(s models.UserSettings) error {
	if p.json {
		return p.encode(s)
	}
	_, err := fmt.Fprintf(p.w, "temperature: %s\nwind speed: %s\n", s.TemperatureUnit, s.WindSpeedUnit)
	return err
}
