package cli

import "github.com/spf13/cobra"

// NewQueueCmd создаёт группу команд для администрирования очередей.
func NewQueueCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Administer queues",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove completed and failed jobs from both queues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := clientFn().ClearQueue(cmd.Context())
			if err != nil {
				return err
			}
			return outputFn().Result(res)
		},
	})

	return cmd
}
