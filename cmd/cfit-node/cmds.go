package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/cfit-project/cfit-ledger/address"
	"github.com/cfit-project/cfit-ledger/config"
	"github.com/cfit-project/cfit-ledger/ledger"
	"github.com/cfit-project/cfit-ledger/util"

	"github.com/ergochat/readline"
)

type Cmd struct {
	Names  []string
	Action func(args []string)
	Args   string
}

var commands = Commands{}

type Commands []Cmd

// Readline will pass the whole line and current offset to it
// Completer need to pass all the candidates, and how long they shared the same characters in line
// Example:
//
// [go, git, git-shell, grep]
// Do("g", 1) => ["o", "it", "it-shell", "rep"], 1
// Do("gi", 2) => ["t", "t-shell"], 2
// Do("git", 3) => ["", "-shell"], 3
func (c Commands) Do(line []rune, pos int) (newLine [][]rune, length int) {
	if len(line) == 0 {
		return [][]rune{}, 0
	}

	lineStr := string(line)

	sols := [][]rune{}

	for _, v := range c {
		name := v.Names[0]
		if strings.HasPrefix(name, lineStr) {
			sols = append(sols, []rune(name[len(lineStr):]))
		}
	}

	return sols, pos
}

// Find returns the command named name, or nil
func (c Commands) Find(name string) *Cmd {
	for i, v := range c {
		for _, v2 := range v.Names {
			if v2 == name {
				return &c[i]
			}
		}
	}
	return nil
}

func addressArg(s string) (address.Address, error) {
	addr, err := address.FromString(s)
	if err != nil {
		return address.INVALID_ADDRESS, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return addr, nil
}

func ledgerCommands(l *ledger.Ledger) Commands {
	return Commands{{
		Names: []string{"status", "info"},
		Args:  "",
		Action: func(args []string) {
			stats, err := l.Stats()
			if err != nil {
				Log.Err(err)
				return
			}

			Log.Infof("%s (%s), %d decimals, network %s", l.Name(), l.Symbol(), l.Decimals(), config.NETWORK_NAME)
			Log.Infof("Total supply: %s; owner: %s", util.FormatCoin(l.TotalSupply()), l.Owner())
			Log.Infof("Pool %s: balance %s; reserve %s", l.PoolAddress(), util.FormatCoin(stats.PoolBalance),
				util.FormatCoin(stats.RewardReserve))
			Log.Infof("Staked: %s in %d active stakes; %d settled; rewards paid: %s",
				util.FormatCoin(stats.TotalStaked), stats.ActiveStakes, stats.SettledStakes,
				util.FormatCoin(stats.TotalRewardsPaid))
			Log.Infof("Reward schedule: %s", l.Schedule())
		},
	}, {
		Names: []string{"balance", "balance_of"},
		Args:  "<address>",
		Action: func(args []string) {
			if len(args) != 1 {
				Log.Err("Usage: balance <address>")
				return
			}
			addr, err := addressArg(args[0])
			if err != nil {
				Log.Err(err)
				return
			}

			bal, err := l.BalanceOf(addr)
			if err != nil {
				Log.Err(err)
				return
			}
			Log.Infof("%s: %s %s", addr, util.FormatCoin(bal), l.Symbol())
		},
	}, {
		Names: []string{"transfer"},
		Args:  "<from> <to> <amount>",
		Action: func(args []string) {
			if len(args) != 3 {
				Log.Err("Usage: transfer <from> <to> <amount>")
				return
			}
			from, err := addressArg(args[0])
			if err != nil {
				Log.Err(err)
				return
			}
			to, err := addressArg(args[1])
			if err != nil {
				Log.Err(err)
				return
			}
			amount, err := util.ParseCoin(args[2])
			if err != nil {
				Log.Err(err)
				return
			}

			err = l.Transfer(from, to, amount, util.Time())
			if err != nil {
				Log.Err("transfer failed:", err)
				return
			}
			Log.Infof("Transferred %s %s to %s", util.FormatCoin(amount), l.Symbol(), to)
		},
	}, {
		Names: []string{"stake"},
		Args:  "<address> <amount> <lock days>",
		Action: func(args []string) {
			if len(args) != 3 {
				Log.Err("Usage: stake <address> <amount> <lock days>")
				return
			}
			addr, err := addressArg(args[0])
			if err != nil {
				Log.Err(err)
				return
			}
			amount, err := util.ParseCoin(args[1])
			if err != nil {
				Log.Err(err)
				return
			}
			days, err := strconv.ParseUint(args[2], 10, 32)
			if err != nil {
				Log.Err("invalid lock duration:", err)
				return
			}

			index, err := l.Stake(addr, amount, days*config.SECONDS_PER_DAY, util.Time())
			if err != nil {
				Log.Err("stake failed:", err)
				return
			}
			Log.Infof("Created stake %d of %s %s for %d days", index, util.FormatCoin(amount), l.Symbol(), days)
		},
	}, {
		Names: []string{"withdraw", "withdraw_stake"},
		Args:  "<address> <index>",
		Action: func(args []string) {
			if len(args) != 2 {
				Log.Err("Usage: withdraw <address> <index>")
				return
			}
			addr, err := addressArg(args[0])
			if err != nil {
				Log.Err(err)
				return
			}
			index, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				Log.Err("invalid index:", err)
				return
			}

			principal, reward, err := l.WithdrawStake(addr, index, util.Time())
			if err != nil {
				Log.Err("withdraw failed:", err)
				return
			}
			Log.Infof("Withdrew %s %s with reward %s", util.FormatCoin(principal), l.Symbol(),
				util.FormatCoin(reward))
		},
	}, {
		Names: []string{"stakes", "print_stakes"},
		Args:  "<address>",
		Action: func(args []string) {
			if len(args) != 1 {
				Log.Err("Usage: stakes <address>")
				return
			}
			addr, err := addressArg(args[0])
			if err != nil {
				Log.Err(err)
				return
			}

			stakes, err := l.GetStakes(addr)
			if err != nil {
				Log.Err(err)
				return
			}
			Log.Infof("%d stakes", len(stakes))
			for i, v := range stakes {
				Log.Infof("%d. %s; unlocks at %d", i, v, v.UnlockTime())
			}
		},
	}, {
		Names: []string{"events", "history"},
		Args:  "<address> [<offset>]",
		Action: func(args []string) {
			if len(args) < 1 || len(args) > 2 {
				Log.Err("Usage: events <address> [<offset>]")
				return
			}
			addr, err := addressArg(args[0])
			if err != nil {
				Log.Err(err)
				return
			}
			var offset uint64
			if len(args) == 2 {
				offset, err = strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					Log.Err("invalid offset:", err)
					return
				}
			}

			events, err := l.Events(addr, offset, config.MAX_EVENTS_PAGE)
			if err != nil {
				Log.Err(err)
				return
			}
			for i, v := range events {
				Log.Infof("%d. %s", offset+uint64(i), &v)
			}
		},
	}, {
		Names: []string{"audit", "print_state"},
		Args:  "",
		Action: func(args []string) {
			err := l.Audit()
			if err != nil {
				Log.Err(err)
				return
			}
			Log.Info("Balances match the total supply")
		},
	}, {
		Names: []string{"log_level", "loglevel", "set_log_level"},
		Args:  "<log level>",
		Action: func(args []string) {
			if len(args) < 1 {
				Log.Err("Usage: log_level <log level>")
				return
			}
			num, err := strconv.ParseUint(args[0], 10, 8)
			if err != nil {
				Log.Err("Log level is not valid")
				return
			}
			Log.SetLogLevel(uint8(num))
		},
	}}
}

func prompts(l *ledger.Ledger) {
	commands = append(ledgerCommands(l), []Cmd{{
		Names: []string{"exit", "quit"},
		Args:  "",
		Action: func(args []string) {
			exit(l)
		},
	}, {
		Names: []string{"help"},
		Args:  "",
		Action: func(args []string) {
			Log.Info("List of available commands:")
			for _, v := range commands {
				Log.Infof("%s %s", util.PadR(v.Names[0], 14), v.Args)
			}
		},
	}}...)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32m>\033[0m ",
		AutoComplete:    commands,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	defer rl.Close()

	rl.CaptureExitSignal()

	Log.SetStdout(rl.Stdout())
	Log.SetStderr(rl.Stderr())

	for {
		line, err := rl.ReadLine()
		if err != nil {
			Log.Err(err)
			exit(l)
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		cmd := commands.Find(args[0])
		if cmd == nil {
			Log.Err("unknown command, use help to see a list of commands")
			continue
		}
		cmd.Action(args[1:])
	}
}

func exit(l *ledger.Ledger) {
	if len(*cpu_profile) > 0 {
		pprof.StopCPUProfile()
	}
	err := l.Close()
	if err != nil {
		Log.Err(err)
	}
	os.Exit(0)
}
