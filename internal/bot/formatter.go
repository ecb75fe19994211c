package bot

import (
	"fmt"
	"time"

	"valor/internal/common"

	"github.com/bwmarrin/discordgo"
)

// Use "teal" color for the bot, and red for errors
const color int = 0x008080
const errorColor int = 0xE74C3C

const unexpectedErrorMessage = "An unexpected error occurred while executing the command."
const unexpectedErrorFooter = "Please contact the bot owner and report this bug"

func ErrorMessage(message string) Response {
	embed := discordgo.MessageEmbed{Title: "Error", Description: message, Color: errorColor}
	return ResponseEmbed{embed: embed, ephemeral: true}
}

func UnexpectedError() Response {
	embed := discordgo.MessageEmbed{
		Title:       "Error",
		Description: unexpectedErrorMessage,
		Color:       errorColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: unexpectedErrorFooter},
	}
	return ResponseEmbed{embed: embed, ephemeral: true}
}

func InputNotValid(errorMessage string) Response {
	return ResponseString{content: fmt.Sprintf("Input not valid: \n> %s", errorMessage), ephemeral: true}
}

func HelpMessage() Response {

	embed := discordgo.MessageEmbed{Title: "Commands available", Color: color}
	for _, definition := range commandDefinitions {
		embed.Fields = append(embed.Fields, helpField(definition))
	}
	return ResponseEmbed{embed: embed}
}

func CommandHelpMessage(definition *discordgo.ApplicationCommand) Response {
	embed := discordgo.MessageEmbed{Title: fmt.Sprintf("Command `/%s`", definition.Name), Color: color}
	embed.Fields = append(embed.Fields, helpField(definition))
	return ResponseEmbed{embed: embed}
}

func helpField(definition *discordgo.ApplicationCommand) *discordgo.MessageEmbedField {
	name := "/" + definition.Name
	for _, option := range definition.Options {
		if option.Required {
			name += fmt.Sprintf(" <%s>", option.Name)
		} else {
			name += fmt.Sprintf(" [%s]", option.Name)
		}
	}
	return &discordgo.MessageEmbedField{
		Name:   fmt.Sprintf("`%s`", name),
		Value:  definition.Description,
		Inline: false,
	}
}

func Pong(latency time.Duration) Response {
	return ResponseString{content: fmt.Sprintf("Pong! Latency is %dms", latency.Milliseconds())}
}

func LimitsMessage(usage common.Usage, window time.Duration) Response {

	embed := discordgo.MessageEmbed{Title: "Command usage", Color: color}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   fmt.Sprintf("Commands in the last %s:", FormatWindow(window)),
		Value:  fmt.Sprintf("%d/%d", usage.Calls, usage.MaxCalls),
		Inline: false,
	})

	var status string
	if usage.Locked {
		status = fmt.Sprintf("Locked out, try again in %s", common.FormatRemaining(usage.Remaining))
	} else {
		status = "Not locked out"
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "Status:",
		Value:  status,
		Inline: false,
	})
	return ResponseEmbed{embed: embed, ephemeral: true}
}

func FormatWindow(window time.Duration) string {
	if window == time.Minute {
		return "minute"
	}
	return common.FormatRemaining(window)
}
