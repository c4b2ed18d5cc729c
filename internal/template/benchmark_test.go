package template

import (
	"fmt"
	"testing"

	"github.com/wpstack/wpstack/internal/stack"
	"github.com/wpstack/wpstack/resources/ec2"
)

// BenchmarkBuild benchmarks building templates with varying resource counts.
func BenchmarkBuild(b *testing.B) {
	sizes := []int{10, 50, 100, 200}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("resources_%d", size), func(b *testing.B) {
			st := generateMockStack(size)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := NewBuilder(st).Build(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkToJSON benchmarks JSON serialization with varying resource counts.
func BenchmarkToJSON(b *testing.B) {
	sizes := []int{10, 50, 100}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("resources_%d", size), func(b *testing.B) {
			template, err := NewBuilder(generateMockStack(size)).Build()
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := ToJSON(template); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// generateMockStack declares one VPC and count-1 subnets referencing it.
func generateMockStack(count int) *stack.Stack {
	st := stack.New("benchmark")
	vpc := st.Add("Vpc", &ec2.VPC{CidrBlock: "10.0.0.0/8"})
	for i := 1; i < count; i++ {
		st.Add(fmt.Sprintf("Subnet%d", i), &ec2.Subnet{
			VpcId:     vpc.Ref(),
			CidrBlock: fmt.Sprintf("10.%d.0.0/24", i%256),
		})
	}
	return st
}
