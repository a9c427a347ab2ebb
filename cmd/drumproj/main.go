package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Southclaws/fault/fmsg"

	"go-drumseq/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	projects, err := sequencer.DefaultProjects()
	if err != nil {
		fail(err)
	}

	switch os.Args[1] {
	case "list":
		err = list(projects)
	case "saves":
		if len(os.Args) < 3 {
			usage()
			return
		}
		err = saves(projects, os.Args[2])
	case "show":
		if len(os.Args) < 3 {
			usage()
			return
		}
		err = show(projects, os.Args[2], arg(3, ""))
	case "rename":
		if len(os.Args) < 5 {
			usage()
			return
		}
		var name string
		name, err = projects.RenameSave(os.Args[2], os.Args[3], os.Args[4])
		if err == nil {
			fmt.Println(name)
		}
	case "rm":
		if len(os.Args) < 4 {
			usage()
			return
		}
		err = projects.DeleteSave(os.Args[2], os.Args[3])
	case "rmproject":
		if len(os.Args) < 3 {
			usage()
			return
		}
		err = projects.DeleteProject(os.Args[2])
	default:
		usage()
	}
	if err != nil {
		fail(err)
	}
}

func usage() {
	fmt.Println("Project Tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                          - List projects")
	fmt.Println("  saves <project>               - List saves, newest first")
	fmt.Println("  show <project> [file]         - Print a save (default: latest)")
	fmt.Println("  rename <project> <file> <name> - Rename a save, keeping its timestamp")
	fmt.Println("  rm <project> <file>           - Delete a save")
	fmt.Println("  rmproject <project>           - Delete a project and all its saves")
}

func arg(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func list(ps *sequencer.Projects) error {
	names, err := ps.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		saves, err := ps.Saves(name)
		if err != nil {
			return err
		}
		fmt.Printf("%-24s %d saves\n", name, len(saves))
	}
	return nil
}

func saves(ps *sequencer.Projects, project string) error {
	all, err := ps.Saves(project)
	if err != nil {
		return err
	}
	for _, s := range all {
		name := s.Name
		if name == "" {
			name = "-"
		}
		fmt.Printf("%s  %-20s %s\n", s.Timestamp.Format("2006-01-02 15:04:05"), name, s.Filename)
	}
	return nil
}

func show(ps *sequencer.Projects, project, file string) error {
	p, err := ps.Load(project, file)
	if err != nil {
		return err
	}
	fmt.Printf("%d bpm  %d steps  swing %.2f\n", p.BPM, p.StepCount, p.Swing)
	for _, ch := range p.Channels {
		var row strings.Builder
		for _, on := range ch.Steps {
			if on {
				row.WriteByte('x')
			} else {
				row.WriteByte('.')
			}
		}
		fmt.Printf("%2d %-12s %s\n", ch.ID, ch.Sample, row.String())
	}
	return nil
}

func fail(err error) {
	if msg := fmsg.GetIssue(err); msg != "" {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
