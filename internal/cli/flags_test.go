package cli

import (
	"reflect"
	"testing"
)

func TestNewFlags(t *testing.T) {
	flags := NewFlags()

	if flags == nil {
		t.Fatal("NewFlags returned nil")
	}

	stringTests := []struct {
		name  string
		value string
	}{
		{"CfgFile", flags.CfgFile},
		{"Region", flags.Region},
		{"BatchFile", flags.BatchFile},
		{"ImagePath", flags.ImagePath},
	}

	for _, tt := range stringTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Errorf("%s = %v, want empty string", tt.name, tt.value)
			}
		})
	}

	if flags.NoHistory || flags.Archive || flags.ListModels {
		t.Error("Expected boolean flags to default to false")
	}
}

func TestFlagsStructure(t *testing.T) {
	flagsType := reflect.TypeOf(Flags{})

	expectedFields := []string{
		"CfgFile", "Region", "BatchFile", "ImagePath", "Verbose",
		"TessdataPrefix", "HistoryDB", "NoHistory", "ShowHistory", "Archive",
		"ListModels",
	}

	for _, fieldName := range expectedFields {
		t.Run("has_field_"+fieldName, func(t *testing.T) {
			if _, ok := flagsType.FieldByName(fieldName); !ok {
				t.Errorf("Flags struct missing field: %s", fieldName)
			}
		})
	}
}
