package app

import (
	"github.com/vk/matchgridgo/internal/registry"
	"github.com/vk/matchgridgo/modules/cargo_build"
	"github.com/vk/matchgridgo/modules/env_vars"
	"github.com/vk/matchgridgo/modules/halite_match"
	"github.com/vk/matchgridgo/modules/http_client"
	"github.com/vk/matchgridgo/modules/match_record"
	"github.com/vk/matchgridgo/modules/match_stats"
	"github.com/vk/matchgridgo/modules/print"
	"github.com/vk/matchgridgo/modules/replay_server"
	"github.com/vk/matchgridgo/modules/replay_upload"
	"github.com/vk/matchgridgo/modules/results_db"
)

// coreModules is the definitive list of all modules that are compiled into
// the matchgridgo binary.
var coreModules = []registry.Module{
	&cargo_build.Module{},
	&env_vars.Module{},
	&halite_match.Module{},
	&http_client.Module{},
	&match_record.Module{},
	&match_stats.Module{},
	&print.Module{},
	&replay_server.Module{},
	&replay_upload.Module{},
	&results_db.Module{},
}
