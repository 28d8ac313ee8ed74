package whatsapp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/user/cronicas-do-japao/internal/combat"
	"github.com/user/cronicas-do-japao/internal/creatures"
	"github.com/user/cronicas-do-japao/internal/game"
	"github.com/user/cronicas-do-japao/internal/occult"
	"github.com/user/cronicas-do-japao/internal/secrets"
	"github.com/user/cronicas-do-japao/internal/types"
)

// choiceLetters label event choices for the /a, /b, ... shortcuts
const choiceLetters = "abcd"

// FormatStatus renders a character sheet
func FormatStatus(c *types.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📜 *%s* (%s, %s)\n\n", c.Name, capitalize(c.Clan), capitalize(c.Profession))
	fmt.Fprintf(&b, "Idade: %d anos | Ano: %d\n", c.Age, c.CurrentYear)
	fmt.Fprintf(&b, "Local: %s, %s\n\n", c.CurrentLocation, game.ProvinceName(c.Region))
	fmt.Fprintf(&b, "❤️ Saúde: %d/100\n", c.Health)
	fmt.Fprintf(&b, "🎌 Honra: %d/100\n", c.Honor)
	fmt.Fprintf(&b, "💰 Ouro: %d\n\n", c.Gold)
	b.WriteString("*ATRIBUTOS:*\n")
	fmt.Fprintf(&b, "Força: %d 💪\n", c.Strength)
	fmt.Fprintf(&b, "Agilidade: %d 🏃\n", c.Agility)
	fmt.Fprintf(&b, "Inteligência: %d 🧠\n", c.Intelligence)
	fmt.Fprintf(&b, "Carisma: %d 🎭\n", c.Charisma)
	if !c.IsAlive {
		fmt.Fprintf(&b, "\n⚰️ Faleceu aos %d anos por %s.", c.Age, c.DeathReason)
	}
	return b.String()
}

// FormatEvent renders an age event and its choices
func FormatEvent(e types.AgeEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎴 *%s*\n\n%s\n\n", e.Title, e.Description)
	b.WriteString("Escolha seu caminho:\n")
	for i, choice := range e.Choices {
		if i < len(choiceLetters) {
			fmt.Fprintf(&b, "*/%c* ", choiceLetters[i])
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, choice.Text)
	}
	return b.String()
}

// FormatChoiceOutcome renders the result of a choice
func FormatChoiceOutcome(o *types.ChoiceOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎭 *%s*\n\n%s\n", o.Event.Title, o.Choice.Consequence)
	if effects := formatEffects(o.Choice.Effects); effects != "" {
		fmt.Fprintf(&b, "\n%s\n", effects)
	}
	if o.Death.IsDead {
		fmt.Fprintf(&b, "\n⚰️ *%s faleceu aos %d anos por %s.*", o.Character.Name, o.Character.Age, o.Death.Reason)
		return b.String()
	}
	fmt.Fprintf(&b, "\n⏳ Um ano se passou. %s tem agora %d anos (%d).", o.Character.Name, o.Character.Age, o.Character.CurrentYear)
	if o.NextEvent != nil {
		fmt.Fprintf(&b, "\n\n%s", FormatEvent(*o.NextEvent))
	}
	return b.String()
}

// FormatAdvance renders an explicit passage of time
func FormatAdvance(o *types.AdvanceOutcome) string {
	c := o.Character
	var b strings.Builder
	if o.YearsElapsed == 0 {
		b.WriteString("⏳ Alguns meses se passaram, mas nada mudou.")
	} else {
		fmt.Fprintf(&b, "⏳ %d ano(s) se passaram. %s tem agora %d anos (%d).", o.YearsElapsed, c.Name, c.Age, c.CurrentYear)
	}
	if o.Death.IsDead {
		fmt.Fprintf(&b, "\n\n⚰️ *%s faleceu aos %d anos por %s.*", c.Name, c.Age, o.Death.Reason)
		return b.String()
	}
	if o.NextEvent != nil {
		fmt.Fprintf(&b, "\n\n%s", FormatEvent(*o.NextEvent))
	}
	return b.String()
}

// FormatTime renders the calendar position of a character
func FormatTime(t *types.TimeOfYear) string {
	return fmt.Sprintf("📅 Ano %d, mês %d\nEstação: %s", t.CurrentYear, t.CurrentMonth, t.SeasonName)
}

// FormatLocations renders the map as seen by a character
func FormatLocations(locations []types.MapLocation, c *types.Character) string {
	var b strings.Builder
	b.WriteString("🗾 *MAPA*\n")
	region := ""
	for _, loc := range locations {
		if loc.Region != region {
			region = loc.Region
			fmt.Fprintf(&b, "\n*%s*\n", game.ProvinceName(region))
		}
		mark := "✅"
		if err := game.CanTravel(c, loc); err != nil {
			mark = "🚫"
		}
		fmt.Fprintf(&b, "%s %s (`%s`)\n", mark, loc.Name, loc.ID)
	}
	b.WriteString("\nUse */viajar [local]* para partir.")
	return b.String()
}

// FormatHistory renders the most recent history records
func FormatHistory(history []*types.GameEvent, limit int) string {
	if len(history) == 0 {
		return "📖 Sua história ainda não foi escrita."
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	var b strings.Builder
	b.WriteString("📖 *HISTÓRICO*\n")
	for _, e := range history {
		consequence := ""
		if len(e.Consequences) > 0 {
			consequence = e.Consequences[0]
		}
		fmt.Fprintf(&b, "\n*%d* %s: %s", e.Year, e.Title, consequence)
	}
	return b.String()
}

// FormatEnemies renders the enemy list
func FormatEnemies() string {
	var b strings.Builder
	b.WriteString("⚔️ *INIMIGOS*\n")
	for _, e := range combat.Enemies() {
		fmt.Fprintf(&b, "\n*%s* (`%s`) dificuldade %d\n%s\n", e.Name, e.ID, e.Difficulty, e.Description)
	}
	b.WriteString("\nUse */combate [inimigo]* para lutar.")
	return b.String()
}

// FormatProfessions renders the starting professions and their bonuses
func FormatProfessions() string {
	var b strings.Builder
	b.WriteString("🛠️ *PROFISSÕES*\n")
	for _, p := range game.Professions() {
		fmt.Fprintf(&b, "\n*%s* (`%s`) %s", p.Name, p.ID, formatBonus(p.Bonus))
	}
	b.WriteString("\n\nUse */comecar [nome] | [clã] | [profissão]* para escolher.")
	return b.String()
}

// FormatOccult renders the occult standing of a character
func FormatOccult(s occult.State) string {
	var b strings.Builder
	b.WriteString("🌑 *O OCULTO*\n\n")
	fmt.Fprintf(&b, "Percepção: %d (%s)\n", s.Perception, s.PerceptionTier)
	fmt.Fprintf(&b, "Resistência espiritual: %d (%s)\n", s.SpiritualResistance, s.ResistanceTier)
	if len(s.Witnessed) > 0 {
		b.WriteString("\nFenômenos presenciados:\n")
		for _, e := range s.Witnessed {
			fmt.Fprintf(&b, "• %s (`%s`)\n", e.Name, e.ID)
		}
		b.WriteString("\nUse */investigar [fenômeno]* para estudá-los.")
	}
	return b.String()
}

// FormatPaths renders the secret paths and which of them are open
func FormatPaths(standing secrets.Standing) string {
	var b strings.Builder
	b.WriteString("🏯 *CAMINHOS SECRETOS*\n")
	for _, p := range secrets.Paths() {
		mark := "🔒"
		if secrets.Accessible(p, standing) {
			mark = "🔓"
		}
		fmt.Fprintf(&b, "\n%s *%s* (`%s`)\n%s\n", mark, p.Name, p.ID, p.Description)
	}
	b.WriteString("\nUse */caminho [id]* para começar a investigar.")
	return b.String()
}

// FormatEncounters renders the active creature encounters
func FormatEncounters(active []creatures.Encounter) string {
	if len(active) == 0 {
		return "🌑 Nada de estranho à sua volta... por enquanto."
	}
	var b strings.Builder
	b.WriteString("👁️ *ENCONTROS*\n")
	for _, e := range active {
		fmt.Fprintf(&b, "\n*%s* (`%s`) %d%%\n%s\n", e.Name, e.ID, e.Investigation, e.Variant.Description)
	}
	b.WriteString("\nUse */examinar [encontro]* para investigar.")
	return b.String()
}

func formatEffects(e types.Effects) string {
	var parts []string
	add := func(label string, v int) {
		if v != 0 {
			parts = append(parts, fmt.Sprintf("%s %+d", label, v))
		}
	}
	add("Saúde", e.Health)
	add("Honra", e.Honor)
	add("Ouro", e.Gold)
	add("Força", e.Strength)
	add("Agilidade", e.Agility)
	add("Inteligência", e.Intelligence)
	add("Carisma", e.Charisma)
	return strings.Join(parts, " | ")
}

func formatBonus(s game.Stats) string {
	return formatEffects(types.Effects{
		Strength:     s.Strength,
		Agility:      s.Agility,
		Intelligence: s.Intelligence,
		Charisma:     s.Charisma,
	})
}

// replyForError turns a game error into a player facing message
func replyForError(err error) string {
	var persistence *game.PersistenceError
	switch {
	case errors.Is(err, game.ErrCharacterNotFound):
		return "Personagem não encontrado. Use */personagens* para ver os seus."
	case errors.Is(err, game.ErrCharacterDeceased):
		return "⚰️ Este personagem já faleceu. Use */comecar [nome]* para uma nova vida."
	case errors.Is(err, game.ErrNoPendingEvent):
		return "Nenhum evento aguarda você nesta idade. Use */avancar* para seguir a vida."
	case errors.Is(err, game.ErrInvalidChoice):
		return "Escolha inválida. Use */evento* para ver as opções."
	case errors.Is(err, game.ErrInvalidName):
		return "Você precisa de um nome! Digite: */comecar [nome]*"
	case errors.Is(err, game.ErrInvalidDuration):
		return "O tempo não volta atrás."
	case errors.Is(err, game.ErrUnknownLocation):
		return "Este lugar não existe. Use */mapa* para ver os destinos."
	case errors.Is(err, game.ErrLocationInaccessible):
		return "🚫 Este lugar está inacessível."
	case errors.Is(err, game.ErrRegionLocked):
		return "🚫 Você só pode viajar dentro de sua província ou para Musashi."
	case errors.Is(err, combat.ErrUnknownEnemy):
		return "Inimigo desconhecido. Use */inimigos* para ver a lista."
	case errors.Is(err, combat.ErrAlreadyInCombat):
		return "Você já está em combate! Use */atacar*, */defender*, */fugir* ou */combate* para resolver."
	case errors.Is(err, combat.ErrNotFighting):
		return "Você não está em combate. Use */inimigos* para escolher um oponente."
	case errors.Is(err, occult.ErrUnknownEvent):
		return "Você não presenciou este fenômeno. Use */oculto* para ver os seus."
	case errors.Is(err, secrets.ErrUnknownPath):
		return "Caminho desconhecido. Use */caminhos* para ver a lista."
	case errors.Is(err, secrets.ErrRequirementsNotMet):
		return "🔒 Você ainda não está pronto para este caminho."
	case errors.Is(err, secrets.ErrAlreadyDiscovered):
		return "Você já trilhou este caminho."
	case errors.Is(err, secrets.ErrAlreadyInvestigating):
		return "Você já investiga outro caminho. Use */pesquisar* para continuar."
	case errors.Is(err, secrets.ErrNoInvestigation):
		return "Você não investiga nenhum caminho. Use */caminhos* para escolher."
	case errors.Is(err, creatures.ErrUnknownEncounter):
		return "Nenhum encontro com este nome. Use */criaturas* para ver os seus."
	case errors.As(err, &persistence):
		return "😱 Os registros falharam e nada mudou. Tente de novo em instantes."
	default:
		return "😱 Algo deu errado. Tente de novo."
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
