package renderer

const meshVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aTexCoord;

uniform mat4 uMVP;
uniform mat4 uModel;

out vec3 vNormal;
out vec2 vTexCoord;

void main() {
	gl_Position = uMVP * vec4(aPos, 1.0);
	vNormal = mat3(transpose(inverse(uModel))) * aNormal;
	vTexCoord = aTexCoord;
}
`

const meshFragmentShader = `
#version 410 core

uniform vec4 uBaseColor;
uniform bool uHasTexture;
uniform sampler2D uTexture;
uniform vec3 uAmbient;
uniform vec3 uLightColor;
uniform vec3 uLightDir;

in vec3 vNormal;
in vec2 vTexCoord;
out vec4 FragColor;

void main() {
	vec4 color = uBaseColor;
	if (uHasTexture) {
		color *= texture(uTexture, vTexCoord);
	}

	vec3 n = normalize(vNormal);
	if (!gl_FrontFacing) {
		n = -n;
	}
	float diffuse = max(dot(n, normalize(uLightDir)), 0.0);

	FragColor = vec4(color.rgb * (uAmbient + uLightColor * diffuse), color.a);
}
`

const lineVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aColor;

uniform mat4 uMVP;

out vec3 vColor;

void main() {
	gl_Position = uMVP * vec4(aPos, 1.0);
	vColor = aColor;
}
`

// Line colors arrive as sRGB and are linearized so the final gamma pass
// reproduces them.
const lineFragmentShader = `
#version 410 core

uniform float uOpacity;

in vec3 vColor;
out vec4 FragColor;

void main() {
	FragColor = vec4(pow(vColor, vec3(2.2)), uOpacity);
}
`
