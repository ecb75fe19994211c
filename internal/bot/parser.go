package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const (
	COMMAND_HELP   = iota
	COMMAND_PING   = iota
	COMMAND_LIMITS = iota
)

const (
	PARSEID_OK                     = iota
	PARSEID_COMMAND_NOT_RECOGNISED = iota
	PARSEID_OPTION_NOT_RECOGNISED  = iota
	PARSEID_OPTION_WRONG_TYPE      = iota
)

var errorMessages map[int]string = map[int]string{
	PARSEID_COMMAND_NOT_RECOGNISED: "Command `%s` not recognised",
	PARSEID_OPTION_NOT_RECOGNISED:  "Option `%s` not recognised",
	PARSEID_OPTION_WRONG_TYPE:      "Option `%s` has the wrong type",
}

var commandIds map[string]int = map[string]int{
	"help":   COMMAND_HELP,
	"ping":   COMMAND_PING,
	"limits": COMMAND_LIMITS,
}

// Slash commands registered in Discord
var commandDefinitions = []*discordgo.ApplicationCommand{
	{
		Name:        "help",
		Description: "Print the usage of the different commands",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "command",
				Description: "Only describe this command",
				Required:    false,
			},
		},
	},
	{
		Name:        "ping",
		Description: "Check that the bot is alive and print its latency",
	},
	{
		Name:        "limits",
		Description: "Print how many commands you have used recently and if you are locked out",
	},
}

type ParseResult struct {
	command      int
	parseid      int
	errorMessage string
	arguments    interface{}
}

func Parse(data discordgo.ApplicationCommandInteractionData) ParseResult {

	command, ok := commandIds[data.Name]
	if !ok {
		log.Debug().Msg(fmt.Sprintf("Command %s not recognised", data.Name))
		parseid := PARSEID_COMMAND_NOT_RECOGNISED
		return ParseResult{parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], data.Name)}
	}

	switch command {
	case COMMAND_HELP:
		// /help [command]
		var commandName string
		for _, option := range data.Options {
			if option.Name != "command" {
				return optionNotRecognised(command, option.Name)
			}
			value, ok := option.Value.(string)
			if !ok {
				parseid := PARSEID_OPTION_WRONG_TYPE
				return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], option.Name)}
			}
			commandName = strings.TrimPrefix(strings.TrimSpace(value), "/")
		}
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: commandName}
	default:
		// /ping, /limits
		if len(data.Options) > 0 {
			return optionNotRecognised(command, data.Options[0].Name)
		}
		return ParseResult{command: command, parseid: PARSEID_OK}
	}
}

func optionNotRecognised(command int, optionName string) ParseResult {
	parseid := PARSEID_OPTION_NOT_RECOGNISED
	return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], optionName)}
}

// Reconstruct the command as the user typed it, for the command log.
// Options without a value are left out
func FullCommand(data discordgo.ApplicationCommandInteractionData) string {
	words := []string{"/" + data.Name}
	words = appendOptions(words, data.Options)
	return strings.Join(words, " ")
}

func appendOptions(words []string, options []*discordgo.ApplicationCommandInteractionDataOption) []string {
	for _, option := range options {
		switch option.Type {
		case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
			words = append(words, option.Name)
			words = appendOptions(words, option.Options)
		default:
			if option.Value != nil {
				words = append(words, fmt.Sprintf("%s=%v", option.Name, option.Value))
			}
		}
	}
	return words
}

func findCommandDefinition(name string) *discordgo.ApplicationCommand {
	for _, definition := range commandDefinitions {
		if definition.Name == name {
			return definition
		}
	}
	return nil
}
