// Package applicationautoscaling declares the AWS::ApplicationAutoScaling
// resource types used for ECS service task scaling.
package applicationautoscaling

// ScalableTarget represents AWS::ApplicationAutoScaling::ScalableTarget.
type ScalableTarget struct {
	MinCapacity       int    `json:"MinCapacity"`
	MaxCapacity       int    `json:"MaxCapacity"`
	ResourceId        any    `json:"ResourceId,omitempty"`
	RoleARN           any    `json:"RoleARN,omitempty"`
	ScalableDimension string `json:"ScalableDimension,omitempty"`
	ServiceNamespace  string `json:"ServiceNamespace,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r ScalableTarget) ResourceType() string {
	return "AWS::ApplicationAutoScaling::ScalableTarget"
}

// ScalingPolicy represents AWS::ApplicationAutoScaling::ScalingPolicy.
type ScalingPolicy struct {
	PolicyName                               string                                                  `json:"PolicyName,omitempty"`
	PolicyType                               string                                                  `json:"PolicyType,omitempty"`
	ScalingTargetId                          any                                                     `json:"ScalingTargetId,omitempty"`
	TargetTrackingScalingPolicyConfiguration *ScalingPolicy_TargetTrackingScalingPolicyConfiguration `json:"TargetTrackingScalingPolicyConfiguration,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r ScalingPolicy) ResourceType() string {
	return "AWS::ApplicationAutoScaling::ScalingPolicy"
}

// ScalingPolicy_TargetTrackingScalingPolicyConfiguration tracks a predefined metric.
type ScalingPolicy_TargetTrackingScalingPolicyConfiguration struct {
	PredefinedMetricSpecification *ScalingPolicy_PredefinedMetricSpecification `json:"PredefinedMetricSpecification,omitempty"`
	TargetValue                   float64                                      `json:"TargetValue,omitempty"`
	ScaleInCooldown               int                                          `json:"ScaleInCooldown,omitempty"`
	ScaleOutCooldown              int                                          `json:"ScaleOutCooldown,omitempty"`
}

// ScalingPolicy_PredefinedMetricSpecification names the tracked metric.
type ScalingPolicy_PredefinedMetricSpecification struct {
	PredefinedMetricType string `json:"PredefinedMetricType,omitempty"`
}
