package structure

import "strings"

// score fills Complexity for n and every descendant and returns n's total:
// its local contribution plus the totals of all its children.
func score(n *Node) int {
	total := 1
	switch n.Kind {
	case IfCondition:
		total++
		total += countChildren(n, IfCondition)
	case Loop:
		total++
		total += countChildren(n, IfCondition, Loop)
	case SwitchCase:
		total += countCases(n.Code)
	}

	for _, child := range n.Children {
		total += score(child)
	}
	n.Complexity = total
	return total
}

func countChildren(n *Node, kinds ...Kind) int {
	count := 0
	for _, child := range n.Children {
		for _, k := range kinds {
			if child.Kind == k {
				count++
				break
			}
		}
	}
	return count
}

func countCases(code string) int {
	count := 0
	for _, line := range strings.Split(code, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "case ") {
			count++
		}
	}
	return count
}
