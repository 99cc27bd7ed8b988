// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

Bind registers the flags on a pflag set (a cobra command's persistent flags
in main); Load resolves them into a Config:

	flags := cliparse.Bind(cmd.PersistentFlags())
	// after cobra parses os.Args
	cfg, err := flags.Load()

ParseFlags does both on a fresh flag set:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Precedence

Later sources win:

 1. struct defaults (envDefault tags)
 2. the dotenv file (--env-file, default ".env"; missing is fine)
 3. the process environment
 4. flags actually set on the command line

The dotenv file never overrides a variable already in the environment.

# Environment Variables

	PORT              -p, --port             (default 3318)
	DATABASE_URL      -d, --database-url
	DATABASE_TYPE     -t, --database-type    (sqlite | postgres, default sqlite)
	MASTER_SECRET     --master-secret        (required)
	MAX_RANK          --max-rank             (0 = number of candidates)
	CUTOFF_FRACTION   --cutoff-fraction      (default 0.5)
	COLLATION_LOCALE  --locale               (default pt-BR)
	RACE1_CANDIDATES  --race1-candidates     (comma separated)
	RACE2_CANDIDATES  --race2-candidates     (comma separated)
	SNAPSHOT_TTL      --snapshot-ttl         (default 5s)
	PRODUCTION        --production
	LOG_LEVEL         --log-level            (default info)

# Validation

Load wraps models.ErrConfiguration when MASTER_SECRET is missing, the port
is out of range, MAX_RANK is negative or CUTOFF_FRACTION leaves [0, 1].
LoadPartial skips the master-secret check for commands that never touch
credentials.
*/
package cliparse
