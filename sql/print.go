package sql

import (
	"fmt"
	"strings"
)

// PrintExpr renders an expression back to roughly the syntax that produced
// it, used by EXPLAIN's "Parse tree:" dump and by error messages.
func PrintExpr(e Expr) string {
	switch v := e.(type) {
	case *ConstExpr:
		switch v.Kind {
		case ConstNull:
			return "NULL"
		case ConstBool:
			if v.Bool {
				return "TRUE"
			}
			return "FALSE"
		case ConstInt:
			return fmt.Sprintf("%d", v.Int)
		case ConstFloat:
			return fmt.Sprintf("%g", v.Float)
		case ConstString:
			return fmt.Sprintf("'%s'", strings.ReplaceAll(v.String, "'", "''"))
		}
	case *IdentExpr:
		if v.Qualifier != "" {
			return v.Qualifier + "." + v.Name
		}
		return v.Name
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", PrintExpr(v.Left), v.Op, PrintExpr(v.Right))
	case *UnaryExpr:
		switch v.Op {
		case OpIsNull, OpIsNotNull:
			return fmt.Sprintf("(%s %s)", PrintExpr(v.Expr), v.Op)
		default:
			return fmt.Sprintf("(%s%s)", v.Op, PrintExpr(v.Expr))
		}
	case *FuncCallExpr:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = PrintExpr(a)
		}
		return fmt.Sprintf("%s(%s)", v.Name, strings.Join(args, ", "))
	}
	return "<?>"
}

func pad(depth int) string { return strings.Repeat("  ", depth) }

func (s *SelectStmt) Format(depth int) string {
	var sb strings.Builder
	sb.WriteString(pad(depth))
	sb.WriteString("SELECT\n")
	for _, item := range s.Projection {
		sb.WriteString(pad(depth + 1))
		if item.Star {
			sb.WriteString("*\n")
			continue
		}
		sb.WriteString(PrintExpr(item.Expr))
		if item.Alias != "" {
			sb.WriteString(" AS " + item.Alias)
		}
		sb.WriteString("\n")
	}
	if s.Source != nil {
		sb.WriteString(pad(depth))
		sb.WriteString(fmt.Sprintf("FROM %s\n", s.Source.Stream))
		for _, j := range s.Source.Joins {
			sb.WriteString(pad(depth + 1))
			sb.WriteString(fmt.Sprintf("JOIN %s ON %s\n", j.Stream, PrintExpr(j.On)))
		}
	}
	if s.Where != nil {
		sb.WriteString(pad(depth))
		sb.WriteString("WHERE " + PrintExpr(s.Where) + "\n")
	}
	if len(s.GroupBy) > 0 {
		parts := make([]string, len(s.GroupBy))
		for i, g := range s.GroupBy {
			parts[i] = PrintExpr(g)
		}
		sb.WriteString(pad(depth))
		sb.WriteString("GROUP BY " + strings.Join(parts, ", ") + "\n")
	}
	if s.Having != nil {
		sb.WriteString(pad(depth))
		sb.WriteString("HAVING " + PrintExpr(s.Having) + "\n")
	}
	return sb.String()
}

func (s *CreateStreamStmt) Format(depth int) string {
	var sb strings.Builder
	sb.WriteString(pad(depth))
	sb.WriteString(fmt.Sprintf("CREATE STREAM %s\n", s.Name))
	for _, c := range s.Columns {
		sb.WriteString(pad(depth + 1))
		sb.WriteString(fmt.Sprintf("%s %s\n", c.Name, c.TypeName))
	}
	return sb.String()
}

func (s *DropStmt) Format(depth int) string {
	return pad(depth) + fmt.Sprintf("DROP %s\n", s.Name)
}

func (s *ExplainStmt) Format(depth int) string {
	return pad(depth) + "EXPLAIN\n" + s.Child.Format(depth+1)
}

func (s *DescribeStmt) Format(depth int) string {
	return pad(depth) + fmt.Sprintf("DESCRIBE %s\n", s.Name)
}

func (s *ShowStmt) Format(depth int) string {
	return pad(depth) + "SHOW STREAMS\n"
}
