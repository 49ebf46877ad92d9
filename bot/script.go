package bot

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
	"voyager.com/cardtable/game"
)

// Script describes a set of controlpad bots and what each one sends after joining.
type Script struct {
	Server       string         `yaml:"server"`
	SettleMillis uint32         `yaml:"settleMillis"`
	Players      []PlayerScript `yaml:"players"`
}

type PlayerScript struct {
	Name        string   `yaml:"name"`
	PauseMillis uint32   `yaml:"pauseMillis"`
	Actions     []string `yaml:"actions"`
}

const defaultSettle = 1500 * time.Millisecond

func (s Script) settle() time.Duration {
	if s.SettleMillis == 0 {
		return defaultSettle
	}
	return time.Duration(s.SettleMillis) * time.Millisecond
}

func (p PlayerScript) pause() time.Duration {
	return time.Duration(p.PauseMillis) * time.Millisecond
}

func ReadScript(scriptFile string) (Script, error) {
	bytes, err := ioutil.ReadFile(scriptFile)
	if err != nil {
		return Script{}, errors.Wrap(err, fmt.Sprintf("Error reading bot script file [%s]", scriptFile))
	}
	return parseScript(bytes, scriptFile)
}

func parseScript(bytes []byte, source string) (Script, error) {
	var script Script
	err := yaml.UnmarshalStrict(bytes, &script)
	if err != nil {
		return Script{}, errors.Wrap(err, fmt.Sprintf("Error parsing bot script YAML file [%s]", source))
	}
	err = script.Validate()
	if err != nil {
		return Script{}, errors.Wrapf(err, "Invalid bot script [%s]", source)
	}
	return script, nil
}

// Validate rejects actions the session would ignore, so scripts fail early.
func (s Script) Validate() error {
	if len(s.Players) == 0 {
		return errors.New("no players")
	}
	for i, p := range s.Players {
		if p.Name == "" {
			return errors.Errorf("player %d has no name", i)
		}
		for _, action := range p.Actions {
			msg := game.ParseClientMessage(action)
			switch msg.Type {
			case game.MessageDeal, game.MessageStateRequest:
			case game.MessageCard:
				if _, err := game.ParseCardRequest(msg.Arg(0)); err != nil {
					return errors.Wrapf(err, "player %s", p.Name)
				}
			default:
				return errors.Errorf("player %s: unsupported action %q", p.Name, action)
			}
		}
	}
	return nil
}
