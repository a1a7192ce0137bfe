package flags

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const choiceUsageTemplateConstant = "%s Accepted values: %s (default %s)."

// ErrFlagNotDefined indicates that the requested flag is not present on the command.
var ErrFlagNotDefined = errors.New("flag not defined")

// BoolFlag resolves a boolean flag value along with whether it was explicitly set.
func BoolFlag(command *cobra.Command, name string) (bool, bool, error) {
	flagSet, flag := locateFlag(command, name)
	if flag == nil {
		return false, false, ErrFlagNotDefined
	}
	value, err := flagSet.GetBool(name)
	if err != nil {
		return false, false, err
	}
	return value, flag.Changed, nil
}

// StringFlag resolves a string flag value along with whether it was explicitly set.
func StringFlag(command *cobra.Command, name string) (string, bool, error) {
	flagSet, flag := locateFlag(command, name)
	if flag == nil {
		return "", false, ErrFlagNotDefined
	}
	value, err := flagSet.GetString(name)
	if err != nil {
		return "", false, err
	}
	return value, flag.Changed, nil
}

// IntFlag resolves an integer flag value along with whether it was explicitly set.
func IntFlag(command *cobra.Command, name string) (int, bool, error) {
	flagSet, flag := locateFlag(command, name)
	if flag == nil {
		return 0, false, ErrFlagNotDefined
	}
	value, err := flagSet.GetInt(name)
	if err != nil {
		return 0, false, err
	}
	return value, flag.Changed, nil
}

// Float64Flag resolves a float flag value along with whether it was explicitly set.
func Float64Flag(command *cobra.Command, name string) (float64, bool, error) {
	flagSet, flag := locateFlag(command, name)
	if flag == nil {
		return 0, false, ErrFlagNotDefined
	}
	value, err := flagSet.GetFloat64(name)
	if err != nil {
		return 0, false, err
	}
	return value, flag.Changed, nil
}

// FormatChoiceUsage renders a flag usage string enumerating accepted values.
func FormatChoiceUsage(defaultValue string, acceptedValues []string, baseUsage string) string {
	return fmt.Sprintf(choiceUsageTemplateConstant, strings.TrimSpace(baseUsage), strings.Join(acceptedValues, ", "), defaultValue)
}

func locateFlag(command *cobra.Command, name string) (*pflag.FlagSet, *pflag.Flag) {
	if command == nil {
		return nil, nil
	}

	candidateSets := []*pflag.FlagSet{
		command.Flags(),
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	if root := command.Root(); root != nil {
		candidateSets = append(candidateSets, root.PersistentFlags())
	}

	for _, set := range candidateSets {
		if set == nil {
			continue
		}
		if flag := set.Lookup(name); flag != nil {
			return set, flag
		}
	}
	return nil, nil
}
