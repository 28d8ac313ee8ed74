package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/user/cronicas-do-japao/internal/combat"
	"github.com/user/cronicas-do-japao/internal/game"
	"github.com/user/cronicas-do-japao/internal/types"
	"go.uber.org/zap"
)

// historyLimit is how many history records /historico shows
const historyLimit = 10

var errNoCharacter = errors.New("player has no living character")

var accents = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u",
	"ç", "c",
)

// cleanCommand normalizes a command word so that "/Começar" and "/comecar"
// are the same command
func cleanCommand(command string) string {
	return accents.Replace(strings.ToLower(strings.TrimSpace(command)))
}

// processGameCommand handles game commands from players
func (cm *ClientManager) processGameCommand(ctx context.Context, sender, content string) string {
	fields := strings.Fields(content)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "Comandos devem começar com '/'. Digite '/ajuda' para ver os comandos disponíveis."
	}

	command := strings.TrimPrefix(cleanCommand(fields[0]), "/")
	args := fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(content), fields[0]))

	reply, err := cm.dispatch(ctx, sender, command, args, rest)
	if err != nil {
		if errors.Is(err, errNoCharacter) {
			return "Você ainda não tem um personagem vivo. 🏯\n\nDigite: */comecar [nome]*"
		}
		var persistence *game.PersistenceError
		if errors.As(err, &persistence) {
			cm.logger.Error("Game command failed",
				zap.String("sender", sender),
				zap.String("command", command),
				zap.Error(err))
		}
		return replyForError(err)
	}
	return reply
}

func (cm *ClientManager) dispatch(ctx context.Context, sender, command string, args []string, rest string) (string, error) {
	switch command {
	case "ajuda", "help":
		return helpText(), nil
	case "comecar", "iniciar":
		return cm.handleStart(ctx, sender, rest)
	case "personagens":
		return cm.handleCharacters(ctx, sender)
	case "jogar":
		return cm.handlePlay(ctx, sender, args)
	case "enemies", "inimigos":
		return FormatEnemies(), nil
	case "profissoes":
		return FormatProfessions(), nil
	case "caminhos":
		return cm.withCharacter(ctx, sender, func(c *types.Character) (string, error) {
			return FormatPaths(cm.systems.Standing(c.ID)), nil
		})
	}

	character, err := cm.activeCharacter(ctx, sender)
	if err != nil {
		return "", err
	}

	switch command {
	case "status":
		return FormatStatus(character), nil
	case "evento":
		event, err := cm.games.PendingEvent(ctx, character.ID)
		if err != nil {
			return "", err
		}
		return FormatEvent(*event), nil
	case "escolher":
		n, ok := parseNumber(args)
		if !ok {
			return "Para escolher, digite: */escolher [número]*", nil
		}
		return cm.choose(ctx, character, n-1)
	case "a", "b", "c", "d":
		return cm.choose(ctx, character, strings.Index(choiceLetters, command))
	case "avancar":
		months := game.MonthsPerYear
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return "Para avançar, digite: */avancar [meses]*", nil
			}
			months = n
		}
		outcome, err := cm.games.AdvanceTime(ctx, character.ID, months)
		if err != nil {
			return "", err
		}
		if outcome.Death.IsDead {
			cm.systems.Arena.Abandon(character.ID)
		}
		return FormatAdvance(outcome), nil
	case "tempo":
		now, err := cm.games.CurrentTime(ctx, character.ID)
		if err != nil {
			return "", err
		}
		return FormatTime(now), nil
	case "mapa":
		return FormatLocations(cm.games.Locations(), character), nil
	case "viajar":
		if len(args) == 0 {
			return "Para viajar, digite: */viajar [local]*\nUse */mapa* para ver os destinos.", nil
		}
		moved, err := cm.games.Travel(ctx, character.ID, strings.ToLower(args[0]))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("🐎 %s chegou a %s, %s.", moved.Name, moved.CurrentLocation, game.ProvinceName(moved.Region)), nil
	case "historico":
		history, err := cm.games.History(ctx, character.ID)
		if err != nil {
			return "", err
		}
		return FormatHistory(history, historyLimit), nil
	case "combate":
		return cm.handleCombat(character, args)
	case "atacar":
		return cm.combatAction(character, combat.ActionAttack)
	case "defender":
		return cm.combatAction(character, combat.ActionDefend)
	case "fugir":
		return cm.combatAction(character, combat.ActionFlee)
	case "oculto":
		return FormatOccult(cm.systems.Occult.State(character.ID)), nil
	case "investigar":
		if len(args) == 0 {
			return "Para investigar, digite: */investigar [fenômeno]*", nil
		}
		if err := requireAlive(character); err != nil {
			return "", err
		}
		inv, err := cm.systems.Occult.Investigate(character.ID, args[0])
		if err != nil {
			return "", err
		}
		return inv.Entry, nil
	case "caminho":
		if len(args) == 0 {
			return "Para seguir um caminho, digite: */caminho [id]*", nil
		}
		if err := requireAlive(character); err != nil {
			return "", err
		}
		inv, err := cm.systems.Society.Begin(ctx, character.ID, args[0], cm.systems.Standing(character.ID))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("🏯 Você começa a investigar *%s*.\n\nUse */pesquisar* para avançar.", inv.Path.Name), nil
	case "pesquisar":
		if err := requireAlive(character); err != nil {
			return "", err
		}
		step, err := cm.systems.Society.Progress(ctx, character.ID)
		if err != nil {
			return "", err
		}
		return step.Message, nil
	case "criaturas":
		return FormatEncounters(cm.systems.Creatures.Active(character.ID)), nil
	case "examinar":
		if len(args) == 0 {
			return "Para examinar, digite: */examinar [encontro]*", nil
		}
		if err := requireAlive(character); err != nil {
			return "", err
		}
		step, err := cm.systems.Creatures.Investigate(character.ID, args[0])
		if err != nil {
			return "", err
		}
		return step.Message, nil
	}

	return "Comando não reconhecido. Digite '/ajuda' para ver os comandos disponíveis.", nil
}

// handleStart creates a character from "/comecar nome | clã | profissão | motivo"
func (cm *ClientManager) handleStart(ctx context.Context, sender, rest string) (string, error) {
	parts := strings.Split(rest, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return "Ei, você esqueceu seu nome! 🧐\n\nDigite: */comecar [nome] | [clã] | [profissão] | [motivo]*", nil
	}

	req := types.NewCharacter{UserID: sender, Name: parts[0]}
	if len(parts) > 1 {
		req.Clan = strings.ToLower(parts[1])
	}
	if len(parts) > 2 {
		req.Profession = strings.ToLower(parts[2])
	}
	if len(parts) > 3 {
		req.TravelReason = parts[3]
	}

	character, err := cm.games.CreateCharacter(ctx, req)
	if err != nil {
		return "", err
	}
	cm.play(sender, character)

	response := fmt.Sprintf("Bem-vindo às *Crônicas do Japão*, %s! 🏯\n\n%s", character.Name, FormatStatus(character))
	if event, err := cm.games.PendingEvent(ctx, character.ID); err == nil {
		response += "\n\n" + FormatEvent(*event)
	}
	return response, nil
}

func (cm *ClientManager) handleCharacters(ctx context.Context, sender string) (string, error) {
	characters, err := cm.games.ListCharacters(ctx, sender)
	if err != nil {
		return "", err
	}
	if len(characters) == 0 {
		return "Você ainda não tem personagens. Digite */comecar [nome]* para começar.", nil
	}

	active := cm.activeID(sender)
	var b strings.Builder
	b.WriteString("🎭 *SEUS PERSONAGENS*\n\n")
	for i, c := range characters {
		mark := ""
		if c.ID == active {
			mark = " ⭐"
		}
		state := fmt.Sprintf("%d anos", c.Age)
		if !c.IsAlive {
			state = "⚰️ " + c.DeathReason
		}
		fmt.Fprintf(&b, "%d. %s (%s)%s\n", i+1, c.Name, state, mark)
	}
	b.WriteString("\nUse */jogar [número]* para assumir um personagem.")
	return b.String(), nil
}

func (cm *ClientManager) handlePlay(ctx context.Context, sender string, args []string) (string, error) {
	characters, err := cm.games.ListCharacters(ctx, sender)
	if err != nil {
		return "", err
	}
	n, ok := parseNumber(args)
	if !ok || n < 1 || n > len(characters) {
		if len(characters) == 0 {
			return "Você ainda não tem personagens. Digite */comecar [nome]* para começar.", nil
		}
		return fmt.Sprintf("Número de personagem inválido. Escolha entre 1 e %d.", len(characters)), nil
	}

	character := characters[n-1]
	cm.play(sender, character)
	return fmt.Sprintf("Você agora joga com *%s*.\n\n%s", character.Name, FormatStatus(character)), nil
}

func (cm *ClientManager) choose(ctx context.Context, character *types.Character, choice int) (string, error) {
	outcome, err := cm.games.Choose(ctx, character.ID, choice)
	if err != nil {
		return "", err
	}
	if outcome.Death.IsDead {
		cm.systems.Arena.Abandon(character.ID)
	}
	return FormatChoiceOutcome(outcome), nil
}

// handleCombat starts a fight with the named enemy, or settles the current
// fight in a single roll when no enemy is given
func (cm *ClientManager) handleCombat(character *types.Character, args []string) (string, error) {
	if err := cm.canFight(character); err != nil {
		return "", err
	}
	if len(args) == 0 {
		result, err := cm.systems.Arena.Resolve(character.ID)
		if err != nil {
			return "", err
		}
		return formatCombatResult(result), nil
	}

	fight, err := cm.systems.Arena.Start(character.ID, strings.ToLower(args[0]))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("⚔️ *%s* bloqueia seu caminho!\n\n%s\n\nUse */atacar*, */defender*, */fugir* ou */combate*.",
		fight.Enemy.Name, fight.Enemy.Description), nil
}

func (cm *ClientManager) combatAction(character *types.Character, action combat.Action) (string, error) {
	if err := cm.canFight(character); err != nil {
		return "", err
	}
	turn, err := cm.systems.Arena.Act(character.ID, action)
	if err != nil {
		return "", err
	}
	if turn.Result != nil {
		return turn.Entry + "\n\n" + formatCombatResult(turn.Result), nil
	}
	return turn.Entry, nil
}

// canFight refuses dead characters and drops the fight they left open
func (cm *ClientManager) canFight(character *types.Character) error {
	if err := requireAlive(character); err != nil {
		cm.systems.Arena.Abandon(character.ID)
		return err
	}
	return nil
}

func formatCombatResult(result *combat.Result) string {
	switch result.Winner {
	case combat.WinnerPlayer:
		msg := "🏆 Vitória! " + result.Description
		if result.Injured {
			msg += "\nVocê saiu ferido."
		}
		return msg
	case combat.WinnerFlee:
		return "🏃 " + result.Description
	default:
		return "💀 Derrota. " + result.Description
	}
}

// activeCharacter returns the character the player is playing. Players who
// never picked one play their most recent living character.
func (cm *ClientManager) activeCharacter(ctx context.Context, sender string) (*types.Character, error) {
	if id := cm.activeID(sender); id != "" {
		character, err := cm.games.GetCharacter(ctx, id)
		if err == nil {
			return character, nil
		}
		if !errors.Is(err, game.ErrCharacterNotFound) {
			return nil, err
		}
	}

	characters, err := cm.games.ListCharacters(ctx, sender)
	if err != nil {
		return nil, err
	}
	var latest *types.Character
	for _, c := range characters {
		if c.IsAlive && (latest == nil || c.CreatedAt.After(latest.CreatedAt)) {
			latest = c
		}
	}
	if latest == nil {
		return nil, errNoCharacter
	}
	cm.play(sender, latest)
	return latest, nil
}

func (cm *ClientManager) activeID(sender string) string {
	cm.activeLock.RLock()
	defer cm.activeLock.RUnlock()
	return cm.active[sender]
}

// play makes character the active one of sender and subscribes the player
// to its omens instead of those of the previous character
func (cm *ClientManager) play(sender string, character *types.Character) {
	cm.activeLock.Lock()
	previous := cm.active[sender]
	cm.active[sender] = character.ID
	cm.activeLock.Unlock()

	if previous != "" && previous != character.ID {
		cm.games.Unwatch(previous)
	}

	if character.IsAlive {
		cm.games.Watch(character.ID, sender)
	}
}

func (cm *ClientManager) withCharacter(ctx context.Context, sender string, fn func(*types.Character) (string, error)) (string, error) {
	character, err := cm.activeCharacter(ctx, sender)
	if err != nil {
		return "", err
	}
	return fn(character)
}

func requireAlive(character *types.Character) error {
	if !character.IsAlive {
		return game.ErrCharacterDeceased
	}
	return nil
}

func parseNumber(args []string) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

func helpText() string {
	var b strings.Builder
	b.WriteString("🏯 *CRÔNICAS DO JAPÃO* 🏯\n\n")

	b.WriteString("📜 *VIDA:*\n")
	b.WriteString("*/comecar [nome] | [clã] | [profissão] | [motivo]* - Começa uma nova vida\n")
	b.WriteString("*/profissoes* - Profissões disponíveis\n")
	b.WriteString("*/personagens* - Lista seus personagens\n")
	b.WriteString("*/jogar [número]* - Assume um personagem\n")
	b.WriteString("*/status* - Mostra sua ficha\n")
	b.WriteString("*/evento* - Mostra o evento da sua idade\n")
	b.WriteString("*/escolher [número]* ou */a* */b* */c* */d* - Responde ao evento\n")
	b.WriteString("*/avancar [meses]* - Deixa o tempo passar\n")
	b.WriteString("*/tempo* - Ano e estação atuais\n")
	b.WriteString("*/historico* - Suas últimas escolhas\n\n")

	b.WriteString("🗾 *VIAGEM:*\n")
	b.WriteString("*/mapa* - Destinos conhecidos\n")
	b.WriteString("*/viajar [local]* - Parte para um destino\n\n")

	b.WriteString("⚔️ *COMBATE:*\n")
	b.WriteString("*/inimigos* - Lista de oponentes\n")
	b.WriteString("*/combate [inimigo]* - Inicia uma luta, sem inimigo resolve a luta atual\n")
	b.WriteString("*/atacar* */defender* */fugir* - Ações de combate\n\n")

	b.WriteString("🌑 *O OCULTO:*\n")
	b.WriteString("*/oculto* - Sua percepção do sobrenatural\n")
	b.WriteString("*/investigar [fenômeno]* - Estuda um fenômeno presenciado\n")
	b.WriteString("*/criaturas* - Encontros ativos\n")
	b.WriteString("*/examinar [encontro]* - Investiga um encontro\n")
	b.WriteString("*/caminhos* - Caminhos secretos\n")
	b.WriteString("*/caminho [id]* - Começa a investigar um caminho\n")
	b.WriteString("*/pesquisar* - Avança na investigação\n")
	return b.String()
}
