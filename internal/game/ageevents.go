package game

import (
	"sort"

	"github.com/user/cronicas-do-japao/internal/types"
)

// EventTable maps a trigger age to the events scripted for it
type EventTable map[int][]types.AgeEvent

// Lookup returns the events whose trigger age equals age. Ages without a
// scripted event yield an empty list.
func (t EventTable) Lookup(age int) []types.AgeEvent {
	events := t[age]
	out := make([]types.AgeEvent, len(events))
	copy(out, events)
	return out
}

// Ages returns the trigger ages in ascending order
func (t EventTable) Ages() []int {
	ages := make([]int, 0, len(t))
	for age, events := range t {
		if len(events) > 0 {
			ages = append(ages, age)
		}
	}
	sort.Ints(ages)
	return ages
}

// Merge returns a table holding t's events with other's entries replacing
// those of the same age
func (t EventTable) Merge(other EventTable) EventTable {
	merged := make(EventTable, len(t)+len(other))
	for age, events := range t {
		merged[age] = events
	}
	for age, events := range other {
		merged[age] = events
	}
	return merged
}

// AgeEvents looks age up in the built-in table
func AgeEvents(age int) []types.AgeEvent {
	return DefaultEventTable().Lookup(age)
}

// DefaultEventTable returns the built-in Sengoku life events
func DefaultEventTable() EventTable {
	return EventTable{
		16: {{
			Age:         16,
			Title:       "Cerimônia de Maioridade",
			Description: "Você completou 16 anos e está pronto para se tornar um guerreiro. Seu clã organiza uma cerimônia para marcar sua transição para a vida adulta.",
			Choices: []types.Choice{
				{
					Text:        "Dedicar-se ao treinamento de espada",
					Consequence: "Você se torna um espadachim habilidoso, mas negligencia seus estudos.",
					Effects:     types.Effects{Strength: 5, Intelligence: -2},
				},
				{
					Text:        "Estudar estratégia com os anciãos",
					Consequence: "Você se torna um estrategista brilhante, mas sua força física fica aquém do esperado.",
					Effects:     types.Effects{Intelligence: 5, Strength: -2},
				},
				{
					Text:        "Equilibrar treinamento e estudos",
					Consequence: "Você se torna um guerreiro completo, embora não se destaque em nenhuma área específica.",
					Effects:     types.Effects{Strength: 2, Intelligence: 2},
				},
			},
		}},
		20: {{
			Age:         20,
			Title:       "Primeira Batalha",
			Description: "Seu clã está em conflito com um clã rival. Esta é sua primeira verdadeira batalha como samurai.",
			Choices: []types.Choice{
				{
					Text:        "Lutar na linha de frente",
					Consequence: "Sua coragem é notada, mas você sofre ferimentos graves.",
					Effects:     types.Effects{Honor: 10, Health: -20},
				},
				{
					Text:        "Atuar como arqueiro de apoio",
					Consequence: "Você contribui para a vitória sem se expor demais.",
					Effects:     types.Effects{Honor: 5, Health: -5},
				},
				{
					Text:        "Proteger o comandante",
					Consequence: "Sua lealdade é recompensada com promoção.",
					Effects:     types.Effects{Honor: 15, Gold: 20},
				},
			},
		}},
		25: {{
			Age:         25,
			Title:       "Casamento Arranjado",
			Description: "Seu clã propõe um casamento estratégico com outro clã para fortalecer alianças.",
			Choices: []types.Choice{
				{
					Text:        "Aceitar o casamento",
					Consequence: "A aliança fortalece seu clã, mas você sacrifica seu amor pessoal.",
					Effects:     types.Effects{Honor: 10, Charisma: 3},
				},
				{
					Text:        "Recusar educadamente",
					Consequence: "Você mantém sua liberdade, mas desagrada alguns anciãos.",
					Effects:     types.Effects{Honor: -5, Charisma: 5},
				},
				{
					Text:        "Negociar melhores termos",
					Consequence: "Você demonstra sabedoria política e obtém vantagens.",
					Effects:     types.Effects{Intelligence: 5, Gold: 30},
				},
			},
		}},
		// Meia-idade
		35: {{
			Age:         35,
			Title:       "Posição de Liderança",
			Description: "Sua experiência e reputação lhe rendem uma posição de liderança no clã.",
			Choices: []types.Choice{
				{
					Text:        "Aceitar o cargo de comandante",
					Consequence: "Você se torna um líder respeitado, mas o peso da responsabilidade é grande.",
					Effects:     types.Effects{Honor: 20, Health: -10},
				},
				{
					Text:        "Tornar-se conselheiro",
					Consequence: "Você influencia as decisões sem o fardo do comando direto.",
					Effects:     types.Effects{Intelligence: 10, Honor: 10},
				},
				{
					Text:        "Recusar para manter liberdade",
					Consequence: "Você prefere a liberdade do campo de batalha à política.",
					Effects:     types.Effects{Strength: 5, Charisma: -5},
				},
			},
		}},
		// Velhice
		50: {{
			Age:         50,
			Title:       "Herdeiro",
			Description: "Seus filhos já cresceram e estão prontos para seguir seus passos.",
			Choices: []types.Choice{
				{
					Text:        "Treinar seu filho mais velho",
					Consequence: "Seu filho se torna um guerreiro digno de seu legado.",
					Effects:     types.Effects{Honor: 15, Charisma: 5},
				},
				{
					Text:        "Deixar os filhos escolherem seus caminhos",
					Consequence: "Seus filhos encontram seus próprios destinos.",
					Effects:     types.Effects{Intelligence: 5, Honor: 5},
				},
				{
					Text:        "Aposentar-se e meditar",
					Consequence: "Você encontra paz interior na velhice.",
					Effects:     types.Effects{Health: 20, Intelligence: 10},
				},
			},
		}},
	}
}
