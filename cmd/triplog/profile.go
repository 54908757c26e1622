package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/TheMichaelB/triplog/internal/models"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or change the owner profile used in reports",
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:     "set",
	Short:   "Change profile fields",
	Example: `  triplog profile set --org "ACME GmbH" --user "Sam Doe" --language de`,
	RunE:    runProfileSet,
}

var (
	profileOrg      string
	profileUser     string
	profileLanguage string
	profileLogo     string
)

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd)

	profileSetCmd.Flags().StringVar(&profileOrg, "org", "", "Organisation")
	profileSetCmd.Flags().StringVar(&profileUser, "user", "", "Driver name")
	profileSetCmd.Flags().StringVar(&profileLanguage, "language", "", "Language tag for number formatting (en, de, fr-CH, ...)")
	profileSetCmd.Flags().StringVar(&profileLogo, "logo", "", "Logo reference for reports")
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	p, err := appClient.Repo.LoadProfile()
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(p)
		return nil
	}
	fmt.Printf("Organisation: %s\n", dash(p.Org))
	fmt.Printf("User:         %s\n", dash(p.User))
	fmt.Printf("Language:     %s\n", dash(p.Language))
	fmt.Printf("Logo:         %s\n", dash(p.Logo))
	return nil
}

// canonicalLanguage validates a BCP 47 tag and returns its canonical form.
func canonicalLanguage(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", models.NewValidationError(models.ErrCodeInvalid, "language", err)
	}
	return tag.String(), nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	p, err := appClient.Repo.LoadProfile()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("org") {
		p.Org = profileOrg
	}
	if flags.Changed("user") {
		p.User = profileUser
	}
	if flags.Changed("language") {
		if p.Language, err = canonicalLanguage(profileLanguage); err != nil {
			return err
		}
	}
	if flags.Changed("logo") {
		p.Logo = profileLogo
	}

	if err := appClient.Repo.SaveProfile(p); err != nil {
		return err
	}
	return reportOK("Profile saved")
}
