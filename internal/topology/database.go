package topology

import (
	"encoding/json"
	"strconv"
	"strings"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/internal/config"
	"github.com/wpstack/wpstack/internal/stack"
	"github.com/wpstack/wpstack/intrinsics"
	"github.com/wpstack/wpstack/resources"
	"github.com/wpstack/wpstack/resources/rds"
	"github.com/wpstack/wpstack/resources/secretsmanager"
)

// Database settings that are not configurable.
const (
	DBInstanceClass = "db.t4g.micro"
	DBEngine        = "mysql"
	// DBIdentifier names both the instance and its subnet group.
	DBIdentifier = "wordpress-db"
	// SecretPasswordKey is the JSON key holding the password in secret-backed modes.
	SecretPasswordKey = "password"
)

// credentials is how the database password reaches the instance and the
// container.
type credentials struct {
	source config.CredentialSource
	// password is the MasterUserPassword value.
	password any
	// secretArn identifies the secret for ECS injection; nil for literals.
	secretArn any
}

func (b *builder) declareDatabase() {
	st := b.stack

	group := st.Add(DBSubnetGroupID, &rds.DBSubnetGroup{
		DBSubnetGroupName:        DBIdentifier,
		DBSubnetGroupDescription: "Isolated subnets for wordpress-db",
		SubnetIds:                b.net.subnetRefs(TierIsolated),
	}, stack.DeletionPolicy(wpstack.PolicyDelete))

	b.creds = b.declareCredentials()

	b.db = st.Add(DatabaseID, &rds.DBInstance{
		DBInstanceIdentifier: DBIdentifier,
		DBName:               b.cfg.DBName,
		DBInstanceClass:      DBInstanceClass,
		Engine:               DBEngine,
		EngineVersion:        b.cfg.DBEngineVersion,
		AllocatedStorage:     strconv.Itoa(b.cfg.StorageGiB),
		StorageType:          "gp2",
		MultiAZ:              resources.Bool(true),
		Port:                 strconv.Itoa(MySQLPort),
		PubliclyAccessible:   resources.Bool(false),
		DBSubnetGroupName:    group.Ref(),
		VPCSecurityGroups:    intrinsics.Any(b.sg.db.GetAtt("GroupId")),
		MasterUsername:       b.cfg.DBUser,
		MasterUserPassword:   b.creds.password,
		CopyTagsToSnapshot:   true,
	}, stack.DeletionPolicy(wpstack.PolicyDelete))

	if b.creds.source == config.CredentialGeneratedSecret {
		st.Add(SecretAttachmentID, &secretsmanager.SecretTargetAttachment{
			SecretId:   intrinsics.Ref{LogicalName: DatabaseSecretID},
			TargetId:   b.db.Ref(),
			TargetType: "AWS::RDS::DBInstance",
		})
	}
}

func (b *builder) declareCredentials() credentials {
	switch source := b.cfg.CredentialSource(); source {
	case config.CredentialLiteral:
		return credentials{source: source, password: b.cfg.DBPassword}

	case config.CredentialExistingSecret:
		id := b.cfg.DBPasswordSecretID
		return credentials{
			source:    source,
			password:  intrinsics.ResolveSecret(id, SecretPasswordKey),
			secretArn: secretArn(id),
		}

	default:
		tmpl, _ := json.Marshal(map[string]string{"username": b.cfg.DBUser})
		secret := b.stack.Add(DatabaseSecretID, &secretsmanager.Secret{
			Description: "Credentials for the wordpress-db database",
			GenerateSecretString: &secretsmanager.Secret_GenerateSecretString{
				SecretStringTemplate: string(tmpl),
				GenerateStringKey:    SecretPasswordKey,
				PasswordLength:       30,
				ExcludeCharacters:    `"@/\ '`,
			},
		}, stack.DeletionPolicy(wpstack.PolicyDelete))
		return credentials{
			source:    source,
			password:  intrinsics.ResolveSecret(secret.Ref(), SecretPasswordKey),
			secretArn: secret.Ref(),
		}
	}
}

// secretArn expands a secret name to a partial ARN in the stack's account
// and region. Full ARNs pass through.
func secretArn(id string) any {
	if strings.HasPrefix(id, "arn:") {
		return id
	}
	return intrinsics.Sub{String: "arn:${AWS::Partition}:secretsmanager:${AWS::Region}:${AWS::AccountId}:secret:" + id}
}
