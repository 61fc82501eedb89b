package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/tarstars/tree_tensor_bridge/ttb"
)

func decodeConfig(srcConfig string, out interface{}) {
	file, err := os.Open(srcConfig)
	ttb.HandleError(err)
	defer func() { ttb.HandleError(file.Close()) }()

	decoder := json.NewDecoder(file)
	ttb.HandleError(decoder.Decode(out))
}

type CompileConfig struct {
	ModelFileName      string `json:"filename_model"`
	TreeImplementation string `json:"tree_implementation"`
	ThreadsNum         int    `json:"threads_num"`
}

func compile(srcConfig string) {
	var compileConfig CompileConfig
	decodeConfig(srcConfig, &compileConfig)

	ensemble, err := ttb.LoadEnsemble(compileConfig.ModelFileName)
	ttb.HandleError(err)

	compiled, err := ttb.CompileEnsemble(ensemble, ttb.CompileConfig{
		TreeImplementation: compileConfig.TreeImplementation,
		ThreadsNum:         compileConfig.ThreadsNum,
	})
	ttb.HandleError(err)

	log.Printf("compiled %d trees, max depth %d, strategy %s",
		len(ensemble.Trees), compiled.MaxDepth, compiled.Strategy)
}

type PredictConfig struct {
	FeaturesFileName   string `json:"filename_features"`
	ModelFileName      string `json:"filename_model"`
	PredictionFileName string `json:"filename_prediction"`
	TreeImplementation string `json:"tree_implementation"`
	ThreadsNum         int    `json:"threads_num"`
}

func predict(srcConfig string) {
	var predictConfig PredictConfig
	decodeConfig(srcConfig, &predictConfig)

	features, err := ttb.ReadNpy(predictConfig.FeaturesFileName)
	ttb.HandleError(err)

	ensemble, err := ttb.LoadEnsemble(predictConfig.ModelFileName)
	ttb.HandleError(err)

	compiled, err := ttb.CompileEnsemble(ensemble, ttb.CompileConfig{
		TreeImplementation: predictConfig.TreeImplementation,
		ThreadsNum:         predictConfig.ThreadsNum,
	})
	ttb.HandleError(err)

	prediction, err := compiled.Predict(features)
	ttb.HandleError(err)

	ttb.HandleError(ttb.WriteNpy(predictConfig.PredictionFileName, prediction))
}

type GraphConfig struct {
	ModelFileName     string `json:"filename_model"`
	FigureType        string `json:"figure_type"`
	PicturesDirectory string `json:"pictures_directory"`
	DumpPrefix        string `json:"dump_prefix"`
}

func graph(srcConfig string) {
	var graphConfig GraphConfig
	decodeConfig(srcConfig, &graphConfig)

	ensemble, err := ttb.LoadEnsemble(graphConfig.ModelFileName)
	ttb.HandleError(err)

	normalized, _, _, err := ttb.AnalyzeEnsemble(ensemble.Trees, ttb.CompileConfig{})
	ttb.HandleError(err)

	ttb.RenderTrees(normalized, graphConfig.DumpPrefix, graphConfig.FigureType, graphConfig.PicturesDirectory)
}

func main() {
	runMode := flag.String("mode", "compile", "you can select either 'compile', 'predict' or 'graph' modes")
	config := flag.String("config", "tree_tensor_config.json", "a config file for the run of the program")
	memprofile := flag.String("memprofile", "", "write memory profile to `file`")

	flag.Parse()

	map[string]func(string){
		"compile": compile,
		"predict": predict,
		"graph":   graph,
	}[*runMode](*config)

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		ttb.HandleError(err)
		defer func() { ttb.HandleError(f.Close()) }()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
	}
}
