// Package main provides the stepnet command line tool.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/stepnet-ml/stepnet/config"
	"github.com/stepnet-ml/stepnet/expr"
	"github.com/stepnet-ml/stepnet/regression"
	"github.com/stepnet-ml/stepnet/tensor"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	switch os.Args[1] {
	case "version":
		fmt.Printf("stepnet %s\n", version)
	case "train":
		runTrain(os.Args[2:])
	case "eval":
		runEval(os.Args[2:])
	case "roots":
		runRoots(os.Args[2:])
	case "fit":
		runFit(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("stepnet - step-by-step neural network learning toolkit")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version                      Show version")
	fmt.Println("  train -config <file>         Train the experiment on a synthetic sine dataset")
	fmt.Println("  eval <expr> [-x value]       Evaluate an expression at x")
	fmt.Println("  roots <expr> [-min] [-max]   Find the zeros of an expression")
	fmt.Println("  fit <x,y> <x,y> ...          Least-squares line through the given points")
}

// runTrain loads an experiment and trains it on sampled sin(x) data, the
// same quickstart dataset the visualizer seeds a new session with.
func runTrain(args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Experiment YAML file")
	samples := fs.Int("samples", 100, "Synthetic samples to generate")
	every := fs.Int("every", 10, "Print loss every N epochs")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		log.Fatal("train: -config is required")
	}
	exp, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("train: %v", err)
	}
	if exp.InputSize() != 1 {
		log.Fatalf("train: the sine quickstart needs a regression-mode experiment, got mode %q", exp.Mode)
	}

	x := tensor.New(*samples, 1)
	y := tensor.New(*samples, 1)
	for i := 0; i < *samples; i++ {
		xi := -math.Pi + 2*math.Pi*float64(i)/float64(*samples-1)
		x.Set(i, 0, xi)
		y.Set(i, 0, math.Sin(xi))
	}

	net, err := exp.Network()
	if err != nil {
		log.Fatalf("train: %v", err)
	}
	history, err := net.Train(x, y, exp.Epochs, exp.LearningRate, func(epoch int, loss float64) bool {
		if epoch%*every == 0 || epoch == exp.Epochs-1 {
			fmt.Printf("epoch %4d  loss %.6f\n", epoch, loss)
		}
		return true
	})
	if err != nil {
		log.Fatalf("train: %v", err)
	}
	fmt.Printf("done: %d epochs, final loss %.6f\n", len(history), history[len(history)-1])
}

func runEval(args []string) {
	if len(args) == 0 {
		log.Fatal("eval: expression is required")
	}
	text := args[0]
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	x := fs.Float64("x", 0, "Point to evaluate at")
	_ = fs.Parse(args[1:])

	v, ok := expr.Evaluate(text, *x, nil, nil)
	if !ok {
		fmt.Printf("%s is undefined at x=%g\n", text, *x)
		os.Exit(1)
	}
	fmt.Printf("%g\n", v)
}

func runRoots(args []string) {
	if len(args) == 0 {
		log.Fatal("roots: expression is required")
	}
	text := args[0]
	fs := flag.NewFlagSet("roots", flag.ExitOnError)
	xMin := fs.Float64("min", -10, "Interval start")
	xMax := fs.Float64("max", 10, "Interval end")
	_ = fs.Parse(args[1:])

	roots := expr.FindRoots(expr.FuncOf(text, nil, nil), *xMin, *xMax)
	if len(roots) == 0 {
		fmt.Printf("no zeros of %s on [%g, %g]\n", text, *xMin, *xMax)
		return
	}
	sort.Float64s(roots)
	for _, r := range roots {
		fmt.Printf("x = %.6f\n", r)
	}
}

func runFit(args []string) {
	points, err := parsePoints(args)
	if err != nil {
		log.Fatalf("fit: %v", err)
	}
	m, err := regression.Fit(points)
	if err != nil {
		log.Fatalf("fit: %v", err)
	}
	fmt.Printf("y = %.6fx + %.6f  (r² = %.4f)\n", m.Slope, m.Intercept, m.RSquared)
}

func parsePoints(args []string) ([]regression.Point, error) {
	var points []regression.Point
	for _, arg := range args {
		xs, ys, found := strings.Cut(arg, ",")
		if !found {
			return nil, fmt.Errorf("point %q: want x,y", arg)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %v", arg, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %v", arg, err)
		}
		points = append(points, regression.Point{X: x, Y: y})
	}
	return points, nil
}
