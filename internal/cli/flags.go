package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	switchTypeName        = "bool"
	switchTrueLiteral     = "true"
	switchAcceptedLiteral = "true, false, yes, no, on, off, 1, 0"
	invalidSwitchFormat   = "invalid boolean value %q for --%s; accepted values: %s"
)

var switchLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// switchValue is a boolean flag that also accepts yes/no and on/off literals,
// written either as --name=value or as --name value.
type switchValue struct {
	target *bool
	name   string
}

func (value *switchValue) Set(input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = switchTrueLiteral
	}
	parsed, known := switchLiterals[normalized]
	if !known {
		return fmt.Errorf(invalidSwitchFormat, input, value.name, switchAcceptedLiteral)
	}
	*value.target = parsed
	return nil
}

func (value *switchValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *switchValue) Type() string {
	return switchTypeName
}

func registerSwitch(flagSet *pflag.FlagSet, target *bool, name string, usage string) {
	*target = false
	flagSet.Var(&switchValue{target: target, name: name}, name, usage)
	if registered := flagSet.Lookup(name); registered != nil {
		registered.DefValue = strconv.FormatBool(false)
		registered.NoOptDefVal = switchTrueLiteral
	}
}

// normalizeSwitchArguments joins "--name value" pairs for switch flags into
// "--name=value" so pflag does not treat the literal as a positional argument.
func normalizeSwitchArguments(command *cobra.Command, arguments []string) []string {
	switchNames := map[string]struct{}{}
	collectSwitchNames(command, switchNames)
	if len(switchNames) == 0 {
		return arguments
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == "--" {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if strings.HasPrefix(argument, "--") && !strings.Contains(argument, "=") && index+1 < len(arguments) {
			flagName := strings.TrimPrefix(argument, "--")
			if _, isSwitch := switchNames[flagName]; isSwitch {
				if _, isLiteral := switchLiterals[strings.ToLower(strings.TrimSpace(arguments[index+1]))]; isLiteral {
					normalized = append(normalized, argument+"="+arguments[index+1])
					index++
					continue
				}
			}
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

func collectSwitchNames(command *cobra.Command, target map[string]struct{}) {
	if command == nil {
		return
	}
	visit := func(flag *pflag.Flag) {
		if flag.Value != nil && flag.Value.Type() == switchTypeName {
			target[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(visit)
	command.Flags().VisitAll(visit)
	for _, child := range command.Commands() {
		collectSwitchNames(child, target)
	}
}

// resolveSetting applies flag > configuration > default precedence. A flag
// counts only when the user set it explicitly.
func resolveSetting[T any](flagSet *pflag.FlagSet, name string, flagValue T, configured *T, fallback T) T {
	if flagSet != nil && flagSet.Changed(name) {
		return flagValue
	}
	if configured != nil {
		return *configured
	}
	return fallback
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func optionalStrings(values []string) *[]string {
	if len(values) == 0 {
		return nil
	}
	return &values
}

func optionalDuration(value time.Duration) *time.Duration {
	if value <= 0 {
		return nil
	}
	return &value
}

func invertedOptional(value *bool) *bool {
	if value == nil {
		return nil
	}
	inverted := !*value
	return &inverted
}
