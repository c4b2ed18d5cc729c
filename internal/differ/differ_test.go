package differ

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/internal/config"
	"github.com/wpstack/wpstack/internal/template"
	"github.com/wpstack/wpstack/internal/topology"
)

func TestCompare(t *testing.T) {
	t1 := &wpstack.Template{
		Resources: map[string]wpstack.ResourceDef{
			"LogGroup":  {Type: "AWS::Logs::LogGroup", Properties: map[string]any{"RetentionInDays": 30}},
			"LogGroup2": {Type: "AWS::Logs::LogGroup", Properties: map[string]any{"RetentionInDays": 7}},
		},
	}

	t2 := &wpstack.Template{
		Resources: map[string]wpstack.ResourceDef{
			"LogGroup":  {Type: "AWS::Logs::LogGroup", Properties: map[string]any{"RetentionInDays": 14}},
			"LogGroup3": {Type: "AWS::Logs::LogGroup", Properties: map[string]any{"RetentionInDays": 7}},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(result.Diff.Removed) != 1 {
		t.Errorf("Removed = %d, want 1", len(result.Diff.Removed))
	} else if result.Diff.Removed[0].Resource != "LogGroup2" {
		t.Errorf("Removed[0].Resource = %s, want LogGroup2", result.Diff.Removed[0].Resource)
	}

	if len(result.Diff.Added) != 1 {
		t.Errorf("Added = %d, want 1", len(result.Diff.Added))
	} else if result.Diff.Added[0].Resource != "LogGroup3" {
		t.Errorf("Added[0].Resource = %s, want LogGroup3", result.Diff.Added[0].Resource)
	}

	if len(result.Diff.Modified) != 1 {
		t.Errorf("Modified = %d, want 1", len(result.Diff.Modified))
	} else {
		want := []string{"Properties.RetentionInDays modified"}
		if got := result.Diff.Modified[0].Changes; !reflect.DeepEqual(got, want) {
			t.Errorf("Modified[0].Changes = %v, want %v", got, want)
		}
	}

	if result.Summary.Total != 3 {
		t.Errorf("Summary.Total = %d, want 3", result.Summary.Total)
	}
}

func TestCompareIdentical(t *testing.T) {
	template := &wpstack.Template{
		Resources: map[string]wpstack.ResourceDef{
			"Vpc": {Type: "AWS::EC2::VPC", Properties: map[string]any{"CidrBlock": "10.0.0.0/16"}},
		},
	}

	result, err := Compare(template, template, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if !result.Empty() {
		t.Errorf("Compare() of identical templates = %+v, want empty", result)
	}
}

func TestCompareEmpty(t *testing.T) {
	t1 := &wpstack.Template{Resources: map[string]wpstack.ResourceDef{}}

	result, err := Compare(t1, nil, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if result.Summary.Total != 0 {
		t.Errorf("Summary.Total = %d, want 0", result.Summary.Total)
	}
}

func TestCompareTypeChange(t *testing.T) {
	t1 := &wpstack.Template{
		Resources: map[string]wpstack.ResourceDef{
			"Rule": {Type: "AWS::EC2::SecurityGroupIngress"},
		},
	}

	t2 := &wpstack.Template{
		Resources: map[string]wpstack.ResourceDef{
			"Rule": {Type: "AWS::EC2::SecurityGroupEgress"},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(result.Diff.Modified) != 1 {
		t.Fatalf("Modified = %d, want 1", len(result.Diff.Modified))
	}

	want := "Type changed: AWS::EC2::SecurityGroupIngress → AWS::EC2::SecurityGroupEgress"
	if got := result.Diff.Modified[0].Changes; len(got) != 1 || got[0] != want {
		t.Errorf("Changes = %v, want [%s]", got, want)
	}
}

func TestComparePolicies(t *testing.T) {
	t1 := &wpstack.Template{
		Resources: map[string]wpstack.ResourceDef{
			"Database": {Type: "AWS::RDS::DBInstance", DeletionPolicy: "Delete", DependsOn: []string{"B", "A"}},
		},
	}
	t2 := &wpstack.Template{
		Resources: map[string]wpstack.ResourceDef{
			"Database": {Type: "AWS::RDS::DBInstance", DeletionPolicy: "Snapshot", DependsOn: []string{"A", "B"}},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	want := []string{`DeletionPolicy changed: "Delete" → "Snapshot"`}
	if len(result.Diff.Modified) != 1 || !reflect.DeepEqual(result.Diff.Modified[0].Changes, want) {
		t.Errorf("Modified = %+v, want one entry with %v", result.Diff.Modified, want)
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name   string
		props1 map[string]any
		props2 map[string]any
		opts   Options
		want   []string
	}{
		{
			name:   "identical",
			props1: map[string]any{"Key": "value"},
			props2: map[string]any{"Key": "value"},
		},
		{
			name:   "added property",
			props1: map[string]any{},
			props2: map[string]any{"Key": "value"},
			want:   []string{"Properties.Key added"},
		},
		{
			name:   "removed property",
			props1: map[string]any{"Key": "value"},
			props2: map[string]any{},
			want:   []string{"Properties.Key removed"},
		},
		{
			name:   "modified property",
			props1: map[string]any{"Key": "value1"},
			props2: map[string]any{"Key": "value2"},
			want:   []string{"Properties.Key modified"},
		},
		{
			name: "nested list element",
			props1: map[string]any{"SecurityGroupIngress": []any{
				map[string]any{"FromPort": 80.0, "ToPort": 80.0},
			}},
			props2: map[string]any{"SecurityGroupIngress": []any{
				map[string]any{"FromPort": 443.0, "ToPort": 80.0},
			}},
			want: []string{"Properties.SecurityGroupIngress[0].FromPort modified"},
		},
		{
			name:   "list grew",
			props1: map[string]any{"Subnets": []any{"a"}},
			props2: map[string]any{"Subnets": []any{"a", "b"}},
			want:   []string{"Properties.Subnets modified"},
		},
		{
			name:   "reordered list",
			props1: map[string]any{"Subnets": []any{"a", "b"}},
			props2: map[string]any{"Subnets": []any{"b", "a"}},
			want:   []string{"Properties.Subnets[0] modified", "Properties.Subnets[1] modified"},
		},
		{
			name:   "reordered list ignoring order",
			props1: map[string]any{"Subnets": []any{"a", "b"}},
			props2: map[string]any{"Subnets": []any{"b", "a"}},
			opts:   Options{IgnoreOrder: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := differ{opts: tt.opts}.compareValues("Properties", tt.props1, tt.props2)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("compareValues() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompareOutputsAndParameters(t *testing.T) {
	t1 := &wpstack.Template{
		Parameters: map[string]wpstack.Parameter{"EcsAmiId": {Type: "String"}},
		Outputs:    map[string]wpstack.Output{"ServiceURL": {Value: "http://app.example.com"}},
	}
	t2 := &wpstack.Template{
		Parameters: map[string]wpstack.Parameter{"EcsAmiId": {Type: "AWS::EC2::Image::Id"}},
		Outputs: map[string]wpstack.Output{
			"ServiceURL":      {Value: "http://www.example.com"},
			"LoadBalancerDNS": {Value: map[string]any{"Fn::GetAtt": []any{"LoadBalancer", "DNSName"}}},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if want := []string{"EcsAmiId.Type modified"}; !reflect.DeepEqual(result.Parameters, want) {
		t.Errorf("Parameters = %v, want %v", result.Parameters, want)
	}
	if want := []string{"LoadBalancerDNS added", "ServiceURL.Value modified"}; !reflect.DeepEqual(result.Outputs, want) {
		t.Errorf("Outputs = %v, want %v", result.Outputs, want)
	}
	if result.Empty() {
		t.Error("Empty() = true, want false")
	}
}

func TestCompare_RenderedAgainstFile(t *testing.T) {
	res, err := topology.Build(config.Default())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	rendered, err := template.NewBuilder(res.Stack).Build()
	if err != nil {
		t.Fatalf("template Build() error = %v", err)
	}

	dir := t.TempDir()
	for _, tc := range []struct {
		name   string
		format template.Format
	}{
		{"template.json", template.FormatJSON},
		{"template.yaml", template.FormatYAML},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data, err := template.Encode(rendered, tc.format)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			path := filepath.Join(dir, tc.name)
			if err := os.WriteFile(path, data, 0o600); err != nil {
				t.Fatal(err)
			}

			loaded, err := LoadTemplate(path)
			if err != nil {
				t.Fatalf("LoadTemplate() error = %v", err)
			}
			result, err := Compare(loaded, rendered, Options{})
			if err != nil {
				t.Fatalf("Compare() error = %v", err)
			}
			if !result.Empty() {
				t.Errorf("round-tripped template differs: %+v", result)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("Resources: [unclosed")); err == nil {
		t.Error("Parse() error = nil, want error")
	}
}
