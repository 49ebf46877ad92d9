package game

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"voyager.com/cardtable/animation"
)

// AnimationConfig holds transition durations in time-units (seconds at 60 ticks each).
type AnimationConfig struct {
	RiseSeconds   float64 `yaml:"riseSeconds"`
	FlipSeconds   float64 `yaml:"flipSeconds"`
	TravelSeconds float64 `yaml:"travelSeconds"`
	GiveSeconds   float64 `yaml:"giveSeconds"`
}

const defaultGiveSeconds = 1.0

var DefaultAnimationConfig = AnimationConfig{
	RiseSeconds:   animation.DefaultSplayDurations.Rise,
	FlipSeconds:   animation.DefaultSplayDurations.Flip,
	TravelSeconds: animation.DefaultSplayDurations.Travel,
	GiveSeconds:   defaultGiveSeconds,
}

// ParseAnimationConfig reads a YAML file. Keys missing from the file keep their defaults.
func ParseAnimationConfig(configFile string) (AnimationConfig, error) {
	bytes, err := ioutil.ReadFile(configFile)
	if err != nil {
		return AnimationConfig{}, errors.Wrap(err, fmt.Sprintf("Error reading animation config file [%s]", configFile))
	}
	return parseAnimationConfig(bytes, configFile)
}

func parseAnimationConfig(bytes []byte, source string) (AnimationConfig, error) {
	data := DefaultAnimationConfig
	err := yaml.Unmarshal(bytes, &data)
	if err != nil {
		return AnimationConfig{}, errors.Wrap(err, fmt.Sprintf("Error parsing animation YAML file [%s]", source))
	}
	err = data.Validate()
	if err != nil {
		return AnimationConfig{}, errors.Wrapf(err, "Invalid animation config [%s]", source)
	}
	return data, nil
}

func (c AnimationConfig) Validate() error {
	durations := []struct {
		key   string
		value float64
	}{
		{"riseSeconds", c.RiseSeconds},
		{"flipSeconds", c.FlipSeconds},
		{"travelSeconds", c.TravelSeconds},
		{"giveSeconds", c.GiveSeconds},
	}
	for _, d := range durations {
		if err := animation.ValidateDuration(d.value); err != nil {
			return errors.Wrapf(err, "%s must be a positive, finite number of seconds", d.key)
		}
	}
	return nil
}

func (c AnimationConfig) SplayDurations() animation.SplayDurations {
	return animation.SplayDurations{
		Rise:   c.RiseSeconds,
		Flip:   c.FlipSeconds,
		Travel: c.TravelSeconds,
	}
}
