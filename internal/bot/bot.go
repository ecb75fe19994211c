package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"valor/internal/common"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// How often the main loop wakes up to run the timed tasks
const mainCycle = 30 * time.Second

// Commands that do not go through the rate limiter
var ungatedCommands = map[int]struct{}{
	COMMAND_LIMITS: {},
}

// Everything the bot needs to know about one slash command invocation
type Invocation struct {
	Id        uuid.UUID
	UserId    string
	UserName  string
	GuildId   string // Empty for private messages
	GuildName string
	Data      discordgo.ApplicationCommandInteractionData
	Time      time.Time
}

type commandFunc func(invocation Invocation, arguments interface{}) (Response, error)

type Bot struct {
	token               string
	guildIds            []string
	limiter             *common.RateLimiter[string]
	commandLog          CommandLog
	commands            map[int]commandFunc
	limiterHousekeeping common.TimedExecutor
	latency             func() time.Duration
	clock               common.Clock
}

func CreateBot(token string, guildIds []string, limiter *common.RateLimiter[string], commandLog CommandLog, housekeepingTimeout time.Duration) (*Bot, error) {

	if token == "" {
		return nil, fmt.Errorf("no discord token provided")
	}
	if limiter == nil {
		return nil, fmt.Errorf("no rate limiter provided")
	}

	bot := &Bot{
		token:      token,
		guildIds:   guildIds,
		limiter:    limiter,
		commandLog: commandLog,
		latency:    func() time.Duration { return 0 },
		clock:      time.Now,
	}
	bot.commands = map[int]commandFunc{
		COMMAND_HELP:   bot.help,
		COMMAND_PING:   bot.ping,
		COMMAND_LIMITS: bot.limits,
	}
	// Forget idle callers from time to time
	bot.limiterHousekeeping = common.NewTimedExecutor(housekeepingTimeout, bot.housekeeping, nil)

	return bot, nil
}

// Connect to discord and serve interactions until the context is done
func (bot *Bot) Run(ctx context.Context) error {

	// Create session
	discord, err := discordgo.New("Bot " + bot.token)
	if err != nil {
		return fmt.Errorf("could not create discord session: %w", err)
	}
	discord.Identify.Intents = discordgo.IntentsGuilds
	bot.latency = discord.HeartbeatLatency

	// Event handlers
	discord.AddHandler(bot.ready)
	discord.AddHandler(bot.Receive)

	// Open session
	if err := discord.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}
	defer discord.Close()

	log.Info().Msg("Starting main loop")
	ticker := time.NewTicker(mainCycle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping main loop")
			return nil
		case <-ticker.C:
			bot.limiterHousekeeping.Execute()
		}
	}
}

func (bot *Bot) ready(discord *discordgo.Session, ready *discordgo.Ready) {

	log.Info().Msg(fmt.Sprintf("Logged in as %s (ID: %s)", ready.User.String(), ready.User.ID))

	// Register the commands globally, or only in the configured guilds
	guildIds := bot.guildIds
	if len(guildIds) == 0 {
		guildIds = []string{""}
	}
	for _, guildId := range guildIds {
		if _, err := discord.ApplicationCommandBulkOverwrite(ready.User.ID, guildId, commandDefinitions); err != nil {
			log.Warn().Err(err).Msg(fmt.Sprintf("Could not sync commands to guild '%s'", guildId))
			continue
		}
		log.Info().Msg(fmt.Sprintf("Synced commands to guild '%s'", guildId))
	}
	log.Info().Msg("Bot is ready")
}

func (bot *Bot) Receive(discord *discordgo.Session, interaction *discordgo.InteractionCreate) {

	// Only slash commands are understood
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}

	invocation, ok := bot.invocation(discord, interaction.Interaction)
	if !ok {
		log.Warn().Msg("Ignoring interaction without a user")
		return
	}

	response, query := bot.handle(invocation)
	if err := sendResponse(discord, interaction.Interaction, response); err != nil {
		log.Error().Err(err).Str("invocation", invocation.Id.String()).Msg("Could not respond to interaction")
		return
	}

	if query != nil && bot.commandLog != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := bot.commandLog.LogCommand(ctx, *query); err != nil {
			log.Warn().Err(err).Str("invocation", invocation.Id.String()).Msg("Failed to log command")
		}
	}
}

// Decide what to answer to an invocation. Successfully executed
// commands also produce the entry for the command log
func (bot *Bot) handle(invocation Invocation) (Response, *CommandQuery) {

	logger := log.With().Str("invocation", invocation.Id.String()).Str("user", invocation.UserId).Logger()
	logger.Info().Msg(fmt.Sprintf("Received command: %s", FullCommand(invocation.Data)))

	parseResult := Parse(invocation.Data)

	// The rate limiter goes first, even for input that is not valid
	if _, ok := ungatedCommands[parseResult.command]; !ok || parseResult.parseid != PARSEID_OK {
		if err := bot.limiter.Check(invocation.UserId); err != nil {
			var exceeded *common.RateLimitExceeded
			if errors.As(err, &exceeded) {
				logger.Info().Msg("Rejecting command because of the rate limiter")
				return ErrorMessage(exceeded.Message), nil
			}
			logger.Error().Err(err).Msg("Rate limiter failed")
			return UnexpectedError(), nil
		}
	}

	if parseResult.parseid != PARSEID_OK {
		logger.Info().Msg(fmt.Sprintf("Wrong input. Reason: %s", parseResult.errorMessage))
		return InputNotValid(parseResult.errorMessage), nil
	}

	command, ok := bot.commands[parseResult.command]
	if !ok {
		logger.Error().Msg(fmt.Sprintf("Command %d has no handler", parseResult.command))
		return UnexpectedError(), nil
	}

	response, err := bot.execute(command, invocation, parseResult.arguments)
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("An error occurred while executing the %s command", invocation.Data.Name))
		return UnexpectedError(), nil
	}

	query := &CommandQuery{
		InvocationId: invocation.Id,
		ServerId:     invocation.GuildId,
		ServerName:   invocation.GuildName,
		DiscordId:    invocation.UserId,
		DiscordName:  invocation.UserName,
		Command:      invocation.Data.Name,
		FullCommand:  FullCommand(invocation.Data),
		Time:         invocation.Time,
	}
	if query.ServerId == "" {
		query.ServerId = "0"
		query.ServerName = "DMs"
	}
	return response, query
}

// Run a command, turning a panic into an error
func (bot *Bot) execute(command commandFunc, invocation Invocation, arguments interface{}) (response Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			response = nil
			err = fmt.Errorf("command panicked: %v", r)
		}
	}()
	return command(invocation, arguments)
}

func (bot *Bot) help(invocation Invocation, arguments interface{}) (Response, error) {

	commandName, _ := arguments.(string)
	if commandName == "" {
		return HelpMessage(), nil
	}
	definition := findCommandDefinition(commandName)
	if definition == nil {
		return InputNotValid(fmt.Sprintf(errorMessages[PARSEID_COMMAND_NOT_RECOGNISED], commandName)), nil
	}
	return CommandHelpMessage(definition), nil
}

func (bot *Bot) ping(invocation Invocation, arguments interface{}) (Response, error) {
	return Pong(bot.latency()), nil
}

func (bot *Bot) limits(invocation Invocation, arguments interface{}) (Response, error) {
	return LimitsMessage(bot.limiter.Usage(invocation.UserId), bot.limiter.Config().Window), nil
}

func (bot *Bot) housekeeping() {
	removed := bot.limiter.Sweep()
	log.Info().Msg(fmt.Sprintf("Rate limiter housekeeping: %d idle callers removed, %d tracked", removed, bot.limiter.Len()))
}

func (bot *Bot) invocation(discord *discordgo.Session, interaction *discordgo.Interaction) (Invocation, bool) {

	user := interactionUser(interaction)
	if user == nil {
		return Invocation{}, false
	}

	invocation := Invocation{
		Id:       uuid.New(),
		UserId:   user.ID,
		UserName: user.String(),
		GuildId:  interaction.GuildID,
		Data:     interaction.ApplicationCommandData(),
		Time:     bot.clock(),
	}
	if interaction.GuildID != "" {
		invocation.GuildName = bot.getGuildName(discord, interaction.GuildID)
	}
	return invocation, true
}

// Members are set for interactions inside guilds, users for private ones
func interactionUser(interaction *discordgo.Interaction) *discordgo.User {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User
	}
	return interaction.User
}

func (bot *Bot) getGuildName(discord *discordgo.Session, guildId string) string {
	if discord == nil || discord.State == nil {
		return guildId
	}
	guild, err := discord.State.Guild(guildId)
	if err != nil {
		log.Debug().Msg(fmt.Sprintf("Guild %s is not in the state cache", guildId))
		return guildId
	}
	return guild.Name
}
