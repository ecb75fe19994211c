package bot

import (
	"github.com/bwmarrin/discordgo"
)

type ResponseString struct {
	content   string
	ephemeral bool
}
type ResponseEmbed struct {
	embed     discordgo.MessageEmbed
	ephemeral bool
}

// Anything the bot can answer an interaction with
type Response interface {
	Data() *discordgo.InteractionResponseData
}

func (response ResponseString) Data() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{Content: response.content, Flags: flags(response.ephemeral)}
}

func (response ResponseEmbed) Data() *discordgo.InteractionResponseData {
	embed := response.embed
	return &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{&embed}, Flags: flags(response.ephemeral)}
}

// Ephemeral responses are only visible to the user that invoked the command
func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func sendResponse(discord *discordgo.Session, interaction *discordgo.Interaction, response Response) error {
	return discord.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: response.Data(),
	})
}
