package cmd

type Context struct {
	Debug bool
}

var CLI struct {
	Debug bool `help:"Enable debug mode"`

	Serve            ServeCmd            `cmd:"" default:"1"                                 help:"Run the server"`
	Migrate          MigrateCmd          `cmd:"" help:"Run database migrations"`
	AggregateRatings AggregateRatingsCmd `cmd:"" help:"Recompute community whiskey ratings"`
	SweepOrphans     SweepOrphansCmd     `cmd:"" help:"Repair pours without a session"`
}
