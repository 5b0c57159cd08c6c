package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	webv1 "github.com/rootster/staticsite-operator/api/v1"
)

//nolint:gochecknoglobals // cobra command pattern
var crdCmd = &cobra.Command{
	Use:   "crd",
	Short: "Print the StaticSite CustomResourceDefinition as YAML",
	RunE:  runCRD,
}

//nolint:noinlineerr // inline error handling is fine here
func runCRD(cmd *cobra.Command, _ []string) error {
	out, err := yaml.Marshal(webv1.CustomResourceDefinition())
	if err != nil {
		return errors.Wrap(err, "failed to marshal CRD")
	}

	cmd.Println(string(out))

	return nil
}
