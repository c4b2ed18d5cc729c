// Package autoscaling declares the AWS::AutoScaling resource types used by the stack.
package autoscaling

// AutoScalingGroup represents AWS::AutoScaling::AutoScalingGroup.
//
// Capacities are strings in the CloudFormation schema.
type AutoScalingGroup struct {
	AutoScalingGroupName             any                                           `json:"AutoScalingGroupName,omitempty"`
	MinSize                          string                                        `json:"MinSize,omitempty"`
	MaxSize                          string                                        `json:"MaxSize,omitempty"`
	DesiredCapacity                  string                                        `json:"DesiredCapacity,omitempty"`
	LaunchTemplate                   *AutoScalingGroup_LaunchTemplateSpecification `json:"LaunchTemplate,omitempty"`
	VPCZoneIdentifier                []any                                         `json:"VPCZoneIdentifier,omitempty"`
	NewInstancesProtectedFromScaleIn bool                                          `json:"NewInstancesProtectedFromScaleIn,omitempty"`
	Tags                             []AutoScalingGroup_TagProperty                `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r AutoScalingGroup) ResourceType() string { return "AWS::AutoScaling::AutoScalingGroup" }

// SetTag adds or replaces a tag that propagates to launched instances.
func (r *AutoScalingGroup) SetTag(key, value string) {
	for i := range r.Tags {
		if r.Tags[i].Key == key {
			r.Tags[i].Value = value
			return
		}
	}
	r.Tags = append(r.Tags, AutoScalingGroup_TagProperty{Key: key, Value: value, PropagateAtLaunch: true})
}

// TagValue returns the value of the tag with the given key.
func (r *AutoScalingGroup) TagValue(key string) (string, bool) {
	for _, tag := range r.Tags {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// AutoScalingGroup_LaunchTemplateSpecification selects a launch template version.
type AutoScalingGroup_LaunchTemplateSpecification struct {
	LaunchTemplateId any `json:"LaunchTemplateId,omitempty"`
	Version          any `json:"Version,omitempty"`
}

// AutoScalingGroup_TagProperty is an ASG tag with launch propagation.
type AutoScalingGroup_TagProperty struct {
	Key               string `json:"Key"`
	Value             string `json:"Value"`
	PropagateAtLaunch bool   `json:"PropagateAtLaunch"`
}

// ScalingPolicy represents AWS::AutoScaling::ScalingPolicy.
type ScalingPolicy struct {
	AutoScalingGroupName        any                                        `json:"AutoScalingGroupName,omitempty"`
	PolicyType                  string                                     `json:"PolicyType,omitempty"`
	TargetTrackingConfiguration *ScalingPolicy_TargetTrackingConfiguration `json:"TargetTrackingConfiguration,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r ScalingPolicy) ResourceType() string { return "AWS::AutoScaling::ScalingPolicy" }

// ScalingPolicy_TargetTrackingConfiguration tracks a predefined metric.
type ScalingPolicy_TargetTrackingConfiguration struct {
	PredefinedMetricSpecification *ScalingPolicy_PredefinedMetricSpecification `json:"PredefinedMetricSpecification,omitempty"`
	TargetValue                   float64                                      `json:"TargetValue,omitempty"`
}

// ScalingPolicy_PredefinedMetricSpecification names the tracked metric.
type ScalingPolicy_PredefinedMetricSpecification struct {
	PredefinedMetricType string `json:"PredefinedMetricType,omitempty"`
}
