package crime

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDatasetCSVRoundTrip(t *testing.T) {
	t.Parallel()

	generated := GenerateSyntheticDataset(200, 42)
	path := filepath.Join(t.TempDir(), "crime_data.csv")
	if err := WriteDatasetCSV(generated, path); err != nil {
		t.Fatalf("WriteDatasetCSV returned error: %v", err)
	}

	loaded, skipped, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset returned error: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("expected no skipped rows, got %d", skipped)
	}
	if len(loaded) != len(generated) {
		t.Fatalf("expected %d rows, got %d", len(generated), len(loaded))
	}

	// Coordinates are written with 6 decimal places; everything else must
	// round-trip exactly, including the derived time features.
	for i := range generated {
		want, got := generated[i], loaded[i]
		if got.CrimeType != want.CrimeType || got.Location != want.Location || got.LGA != want.LGA {
			t.Fatalf("row %d identity mismatch: %+v vs %+v", i, got, want)
		}
		if got.WeatherCondition != want.WeatherCondition {
			t.Fatalf("row %d weather mismatch: %q vs %q", i, got.WeatherCondition, want.WeatherCondition)
		}
		if math.Abs(got.Latitude-want.Latitude) > 1e-5 || math.Abs(got.Longitude-want.Longitude) > 1e-5 {
			t.Fatalf("row %d coordinate drift: (%f,%f) vs (%f,%f)", i, got.Latitude, got.Longitude, want.Latitude, want.Longitude)
		}
		if got.Hour != want.Hour || got.TimePeriod != want.TimePeriod {
			t.Fatalf("row %d time feature mismatch: %d/%s vs %d/%s", i, got.Hour, got.TimePeriod, want.Hour, want.TimePeriod)
		}
		if got.DayOfWeek != want.DayOfWeek || got.IsHoliday != want.IsHoliday {
			t.Fatalf("row %d calendar feature mismatch", i)
		}
	}
}

func TestGenerateSyntheticDatasetIsSeeded(t *testing.T) {
	t.Parallel()

	first := GenerateSyntheticDataset(50, 7)
	second := GenerateSyntheticDataset(50, 7)
	for i := range first {
		if first[i].CrimeType != second[i].CrimeType || first[i].LGA != second[i].LGA {
			t.Fatalf("row %d differs across runs with the same seed", i)
		}
	}

	other := GenerateSyntheticDataset(50, 8)
	same := true
	for i := range first {
		if first[i].CrimeType != other[i].CrimeType || first[i].Location != other[i].Location {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical rows")
	}
}

func TestLoadDatasetRejectsMissingColumns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.csv")
	content := "crime_type,location,latitude\nTheft,Ikeja,6.5\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := LoadDataset(path)
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
	if !strings.Contains(err.Error(), "longitude") {
		t.Fatalf("error should name the missing column, got: %v", err)
	}
}

func TestLoadDatasetAcceptsColumnAliases(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "aliased.csv")
	content := "Crime_Type,Location,Area,Latitude,Longitude,Weather_Condition,Date\n" +
		"Theft,Yaba,Lagos Mainland,6.51,3.37,Clear,2024-06-12\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	samples, skipped, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset returned error: %v", err)
	}
	if skipped != 0 || len(samples) != 1 {
		t.Fatalf("expected 1 row and 0 skipped, got %d rows and %d skipped", len(samples), skipped)
	}
	if samples[0].LGA != "Lagos Mainland" {
		t.Fatalf("area alias not applied: %q", samples[0].LGA)
	}
	if !samples[0].IsHoliday {
		t.Fatal("2024-06-12 is Democracy Day and should be flagged as a holiday")
	}
}

func TestLoadDatasetSkipsUnusableRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "partial.csv")
	content := strings.Join([]string{
		"crime_type,location,lga,latitude,longitude,weather_condition,date_time",
		"Theft,Ikeja,Ikeja,6.59,3.34,Clear,2024-03-04 18:30:00",
		",Yaba,Lagos Mainland,6.51,3.37,Rainy,2024-03-05 09:00:00",
		"Robbery,Lekki,Eti-Osa,not-a-number,3.47,Cloudy,2024-03-06 22:00:00",
		"Assault,Epe,Epe,6.58,3.98,Sunny,never",
		"Fraud,Ajah,Eti-Osa,6.46,3.57,Clear,2024-03-07 14:15:00",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	samples, skipped, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset returned error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 usable rows, got %d", len(samples))
	}
	if skipped != 3 {
		t.Fatalf("expected 3 skipped rows, got %d", skipped)
	}
	if samples[0].CrimeType != "Theft" || samples[1].CrimeType != "Fraud" {
		t.Fatalf("unexpected surviving rows: %s, %s", samples[0].CrimeType, samples[1].CrimeType)
	}
}

func TestLoadDatasetSkipsRaggedRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ragged.csv")
	content := strings.Join([]string{
		"crime_type,location,lga,latitude,longitude,weather_condition,date_time",
		"Theft,Ikeja,Ikeja,6.59,3.34,Clear,2024-03-04 18:30:00",
		"Robbery,Lekki,Eti-Osa,6.44",
		"Fraud,Ajah,Eti-Osa,6.46,3.57,Clear,2024-03-07 14:15:00",
		"Assault,Epe,Epe,6.58,3.98,Sunny,2024-03-08 21:00:00",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// A short row must not swallow the rows after it.
	samples, skipped, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset returned error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 usable rows, got %d", len(samples))
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped row, got %d", skipped)
	}
	if samples[2].CrimeType != "Assault" {
		t.Fatalf("trailing row lost, last surviving row is %s", samples[2].CrimeType)
	}
}

func TestLoadDatasetRejectsMalformedQuoting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "quoting.csv")
	content := "crime_type,location,lga,latitude,longitude,weather_condition,date_time\n" +
		"Theft,\"Ikeja,Ikeja,6.59,3.34,Clear,2024-03-04 18:30:00\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := LoadDataset(path); err == nil {
		t.Fatal("expected error for malformed quoting")
	}
}

func TestLoadDatasetRejectsEmptyBody(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.csv")
	content := "crime_type,location,lga,latitude,longitude,weather_condition,date_time\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := LoadDataset(path); err == nil {
		t.Fatal("expected error for dataset without usable rows")
	}
}
