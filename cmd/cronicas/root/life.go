package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/cronicas-do-japao/internal/game"
	"github.com/user/cronicas-do-japao/internal/types"
	"github.com/user/cronicas-do-japao/internal/ui"
)

func requireID(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return errors.New("character id is required")
	}
	return nil
}

func newCreateCmd() *cobra.Command {
	var clan, profession, reason string
	cmd := &cobra.Command{
		Use:   "criar <nome>",
		Short: "Create a character",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("name is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			gm, cleanup, err := openGame(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := gm.CreateCharacter(ctx, types.NewCharacter{
				UserID:       userID,
				Name:         strings.Join(args, " "),
				Clan:         clan,
				Profession:   profession,
				TravelReason: reason,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n\n", ui.Good.Render(ui.IconOK+" Criado"), ui.Muted.Render(c.ID))
			printCharacter(out, c)
			if event, err := gm.PendingEvent(ctx, c.ID); err == nil {
				fmt.Fprintln(out)
				printEvent(out, event)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&clan, "cla", "", "Clan (owari, kai, shinano, mino, musashi, echigo)")
	cmd.Flags().StringVar(&profession, "profissao", "", "Profession ("+professionIDs()+")")
	cmd.Flags().StringVar(&reason, "motivo", "", "Reason for traveling")
	return cmd
}

func professionIDs() string {
	var ids []string
	for _, p := range game.Professions() {
		ids = append(ids, p.ID)
	}
	return strings.Join(ids, ", ")
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listar",
		Short: "List the player's characters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			gm, cleanup, err := openGame(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			characters, err := gm.ListCharacters(ctx, userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(characters) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("Nenhum personagem. Use `cronicas criar <nome>`."))
				return nil
			}
			fmt.Fprintln(out, ui.Heading(ui.IconCastle, "Personagens"))
			for _, c := range characters {
				fmt.Fprintf(out, "- %s %s %s %s\n",
					ui.Key.Render(c.Name),
					ui.Muted.Render(c.ID),
					fmt.Sprintf("%d anos", c.Age),
					ui.Alive(c.IsAlive, c.DeathReason))
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show a character sheet",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			gm, cleanup, err := openGame(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := gm.GetCharacter(ctx, args[0])
			if err != nil {
				return err
			}
			printCharacter(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func newEventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evento <id>",
		Short: "Show the event waiting at the character's age",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			gm, cleanup, err := openGame(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			event, err := gm.PendingEvent(ctx, args[0])
			if err != nil {
				return err
			}
			printEvent(cmd.OutOrStdout(), event)
			return nil
		},
	}
}

func newChooseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "escolher <id> <n>",
		Short: "Answer the pending event with choice n (1-based)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("character id and choice number are required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid choice %q", args[1])
			}

			ctx := context.Background()
			gm, cleanup, err := openGame(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			outcome, err := gm.Choose(ctx, args[0], n-1)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconEvent, outcome.Event.Title))
			fmt.Fprintln(out, outcome.Choice.Consequence)
			fmt.Fprintln(out)
			printFate(out, outcome.Character, outcome.Death)
			if outcome.NextEvent != nil {
				fmt.Fprintln(out)
				printEvent(out, outcome.NextEvent)
			}
			return nil
		},
	}
}

func newAdvanceCmd() *cobra.Command {
	var months int
	cmd := &cobra.Command{
		Use:   "avancar <id>",
		Short: "Let time pass for a character",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			gm, cleanup, err := openGame(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			outcome, err := gm.AdvanceTime(ctx, args[0], months)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.LabelValue(ui.IconTime+" Anos", outcome.YearsElapsed))
			printFate(out, outcome.Character, outcome.Death)
			if outcome.NextEvent != nil {
				fmt.Fprintln(out)
				printEvent(out, outcome.NextEvent)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&months, "meses", "m", game.MonthsPerYear, "Months to advance")
	return cmd
}

func newTravelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "viajar <id> [local]",
		Short: "Travel to a location, or show the map",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			gm, cleanup, err := openGame(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				c, err := gm.GetCharacter(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ui.Heading(ui.IconMap, "Mapa"))
				for _, loc := range gm.Locations() {
					mark := ui.Good.Render(ui.IconOK)
					if game.CanTravel(c, loc) != nil {
						mark = ui.Bad.Render(ui.IconLocked)
					}
					fmt.Fprintf(out, "%s %s %s %s\n", mark, ui.Key.Render(loc.Name), ui.Muted.Render(loc.ID), game.ProvinceName(loc.Region))
				}
				return nil
			}

			c, err := gm.Travel(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.LabelValue("Local", fmt.Sprintf("%s, %s", c.CurrentLocation, game.ProvinceName(c.Region))))
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "historico <id>",
		Short: "Show a character's resolved events",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			gm, cleanup, err := openGame(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			history, err := gm.History(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(history) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("Nenhum evento registrado."))
				return nil
			}
			fmt.Fprintln(out, ui.Heading(ui.IconScroll, "Histórico"))
			for _, e := range history {
				fmt.Fprintf(out, "- %s %s: %s\n", ui.Key.Render(strconv.Itoa(e.Year)), e.Title, strings.Join(e.Consequences, " "))
			}
			return nil
		},
	}
}

func printCharacter(out io.Writer, c *types.Character) {
	var b strings.Builder
	fmt.Fprintln(&b, ui.Heading(ui.IconScroll, c.Name))
	fmt.Fprintln(&b, ui.LabelValue("Clã", game.ProvinceName(c.Clan)))
	fmt.Fprintln(&b, ui.LabelValue("Profissão", c.Profession))
	fmt.Fprintln(&b, ui.LabelValue("Idade", fmt.Sprintf("%d anos (%d)", c.Age, c.CurrentYear)))
	fmt.Fprintln(&b, ui.LabelValue("Local", fmt.Sprintf("%s, %s", c.CurrentLocation, game.ProvinceName(c.Region))))
	fmt.Fprintln(&b, ui.LabelValue("Estado", ui.Alive(c.IsAlive, c.DeathReason)))
	fmt.Fprintln(&b, ui.LabelValue("Saúde", ui.Meter(c.Health)))
	fmt.Fprintln(&b, ui.LabelValue("Honra", ui.Meter(c.Honor)))
	fmt.Fprintln(&b, ui.LabelValue("Ouro", c.Gold))
	fmt.Fprintf(&b, "%s %d  %s %d  %s %d  %s %d",
		ui.Key.Render("FOR"), c.Strength,
		ui.Key.Render("AGI"), c.Agility,
		ui.Key.Render("INT"), c.Intelligence,
		ui.Key.Render("CAR"), c.Charisma)
	fmt.Fprintln(out, ui.Panel.Render(b.String()))
}

func printEvent(out io.Writer, e *types.AgeEvent) {
	fmt.Fprintln(out, ui.Heading(ui.IconEvent, e.Title))
	fmt.Fprintln(out, e.Description)
	for i, choice := range e.Choices {
		fmt.Fprintf(out, "  %s %s\n", ui.Key.Render(strconv.Itoa(i+1)+"."), choice.Text)
	}
}

func printFate(out io.Writer, c *types.Character, death types.DeathCheck) {
	if death.IsDead {
		fmt.Fprintln(out, ui.Bad.Render(fmt.Sprintf("%s %s faleceu aos %d anos por %s.", ui.IconGrave, c.Name, c.Age, death.Reason)))
		return
	}
	fmt.Fprintln(out, ui.LabelValue(c.Name, fmt.Sprintf("%d anos, ano %d", c.Age, c.CurrentYear)))
}
